/*
File Name:  peerlog.go
Copyright:  2024 Peerchat Project

Per-peer log files. The original implementation this daemon's protocol is
based on names each peer's log file after the connection's file
descriptor number; Go does not expose a portable, stable analog, so peers
are numbered sequentially in connection order instead.
*/
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"sync"
)

// peerLogs hands out one append-only log file per connected peer, named
// peer-<n>.log for the n-th connection this process has ever made or
// accepted.
type peerLogs struct {
	mutex   sync.Mutex
	next    int
	byIP    map[string]*os.File
}

func newPeerLogs() *peerLogs {
	return &peerLogs{byIP: make(map[string]*os.File)}
}

func (p *peerLogs) onNewPeer(ip net.IP) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	n := p.next
	p.next++

	f, err := os.OpenFile(fmt.Sprintf("peer-%d.log", n), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("peerlog: could not open log file for peer %s: %s\n", ip.String(), err.Error())
		return
	}

	fmt.Fprintf(f, "connected: %s\n", ip.String())
	p.byIP[ip.String()] = f
}

func (p *peerLogs) onPeerGone(ip net.IP, cause error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	f, ok := p.byIP[ip.String()]
	if !ok {
		return
	}
	if cause != nil {
		fmt.Fprintf(f, "disconnected: %s\n", cause.Error())
	} else {
		fmt.Fprintf(f, "disconnected\n")
	}
	f.Close()
	delete(p.byIP, ip.String())
}
