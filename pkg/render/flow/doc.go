// Package flow renders compiled trust-chain graphs as node/edge documents for
// interactive diagram front ends.
//
// Each zone cluster becomes a "group" node and its members are child nodes
// positioned relative to the group on a fixed grid. Key-set nodes expose
// "ksk" and "zsk" handles that edges reference through sourceHandle and
// targetHandle. Colors and stroke styles carry over from the graph IR, so
// the document shows the same signing and break states as the DOT output.
//
//	data, err := flow.RenderJSON(g, flow.WithSummary(resp.Summary))
package flow
