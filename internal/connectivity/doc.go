// Package connectivity watches the remote schema authority and announces
// connectivity transitions on the control channel.
//
// The Monitor probes at a fixed interval. The first failed probe after a
// healthy period publishes "disconnected"; the first successful probe after
// an outage publishes "reconnected". Steady states publish nothing, and a
// healthy start is silent because the initial state is assumed up.
package connectivity
