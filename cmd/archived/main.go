/*
File Name:  main.go
Copyright:  2024 Peerchat Project

The operator-facing daemon binary. It wires the core backend, the peer
listener, the monitoring surface, and an interactive stdin prompt together;
none of this wiring is itself part of the core's contracts.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/peerchat/archived/core"
	"github.com/peerchat/archived/webapi"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config path] [-webapi addr] <initial_peer_host_or_ip> <own_public_ipv4>\n", os.Args[0])
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	webapiAddr := flag.String("webapi", "", "override the monitoring surface listen address")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		return core.ExitErrorUsage
	}

	initialPeer := flag.Arg(0)
	selfIP, err := parseIPv4(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid own IPv4 address %q: %s\n", flag.Arg(1), err.Error())
		return core.ExitErrorUsage
	}

	logs := newPeerLogs()
	filters := &core.Filters{
		NewPeer:  logs.onNewPeer,
		PeerGone: logs.onPeerGone,
		LogError: func(function, format string, v ...interface{}) {
			log.Printf(function+": "+format, v...)
		},
	}

	backend, status, err := core.Init(selfIP, *configPath, filters)
	if status != core.ExitSuccess {
		fmt.Fprintf(os.Stderr, "init failed: %s\n", err.Error())
		return status
	}
	backend.Stdout.Subscribe(os.Stdout)

	if err := backend.Listen(); err != nil {
		log.Printf("listen failed: %s\n", err.Error())
		return core.ExitErrorListen
	}
	log.Printf("listening for peers on %s, self %s\n", backend.Config.Listen, backend.SelfNetIP().String())

	webapiListen := backend.Config.WebapiListen
	if *webapiAddr != "" {
		webapiListen = *webapiAddr
	}
	webapi.Start(backend, webapiListen)
	log.Printf("monitoring surface on %s\n", webapiListen)

	if ip, err := parseIPv4(initialPeer); err == nil {
		if err := backend.DialAndRegister(ip); err != nil {
			log.Printf("could not reach initial peer %s: %s\n", initialPeer, err.Error())
		}
	} else if resolved, err := resolveIPv4(initialPeer); err == nil {
		if err := backend.DialAndRegister(resolved); err != nil {
			log.Printf("could not reach initial peer %s: %s\n", initialPeer, err.Error())
		}
	} else {
		log.Printf("could not resolve initial peer %s: %s\n", initialPeer, err.Error())
	}

	return operatorPrompt(backend)
}

// operatorPrompt reads newline-terminated chat lines from stdin until the
// operator types "exit".
func operatorPrompt(backend *core.Backend) int {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "exit" {
			backend.Shutdown()
			return core.ExitSuccess
		}

		if !backend.SubmitMessage([]byte(line)) {
			fmt.Println("message rejected: must be 1-255 printable characters")
		}
	}

	backend.Shutdown()
	return core.ExitSuccess
}

func parseIPv4(s string) (ip [4]byte, err error) {
	parsed := net.ParseIP(s)
	if parsed == nil {
		return ip, fmt.Errorf("not an IP address")
	}
	v4 := parsed.To4()
	if v4 == nil {
		return ip, fmt.Errorf("not an IPv4 address")
	}
	copy(ip[:], v4)
	return ip, nil
}

func resolveIPv4(host string) (ip [4]byte, err error) {
	addrs, err := net.LookupIP(host)
	if err != nil {
		return ip, err
	}
	for _, addr := range addrs {
		if v4 := addr.To4(); v4 != nil {
			copy(ip[:], v4)
			return ip, nil
		}
	}
	return ip, fmt.Errorf("no IPv4 address found for %s", host)
}
