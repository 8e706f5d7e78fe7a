// Package table implements the generic match-action forwarding table engine.
package table

import (
	"fmt"

	"icc.tech/switch-agent/internal/core"
)

// ActionID identifies one of the finite data-plane actions. Actions carry
// their runtime arguments in Params, so an entry is a closed descriptor the
// pipeline can apply without further table state.
type ActionID uint8

const (
	// ActionDrop discards the packet.
	ActionDrop ActionID = iota
	// ActionForward sends the packet out Params.EgressPort, rewriting the
	// Ethernet destination to Params.NextHopMAC when it is set.
	ActionForward
	// ActionBroadcast floods the packet to Params.Group.
	ActionBroadcast
	// ActionARPReply answers an ARP request with Params.NextHopMAC as the
	// resolved hardware address.
	ActionARPReply
)

func (a ActionID) String() string {
	switch a {
	case ActionDrop:
		return "drop"
	case ActionForward:
		return "forward"
	case ActionBroadcast:
		return "broadcast"
	case ActionARPReply:
		return "arp_reply"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Params holds the runtime arguments of an action. Unused fields stay zero.
type Params struct {
	EgressPort core.PortID
	NextHopMAC core.MAC
	Group      uint16
}

// Action pairs an action identifier with its arguments.
type Action struct {
	ID     ActionID
	Params Params
}

// DropAction is the usual table default.
func DropAction() Action {
	return Action{ID: ActionDrop}
}

// ForwardAction forwards out port with the given next-hop rewrite.
func ForwardAction(port core.PortID, nextHop core.MAC) Action {
	return Action{ID: ActionForward, Params: Params{EgressPort: port, NextHopMAC: nextHop}}
}

// BroadcastAction floods to the given group.
func BroadcastAction(group uint16) Action {
	return Action{ID: ActionBroadcast, Params: Params{Group: group}}
}

// ARPReplyAction answers ARP requests with the given hardware address.
func ARPReplyAction(mac core.MAC) Action {
	return Action{ID: ActionARPReply, Params: Params{NextHopMAC: mac}}
}
