package config

import "net/url"

// Endpoint assembles the collaborator node's JSON-RPC URL, embedding
// User/Password as URL userinfo when set — the conventional way a
// bitcoind-style JSON-RPC server authenticates a client, and the shape
// internal/rpcclient.NewWithTimeout expects its endpoint argument in.
func (n NodeConfig) Endpoint() string {
	u := url.URL{Scheme: "http", Host: n.Host}
	if n.User != "" {
		u.User = url.UserPassword(n.User, n.Password)
	}
	return u.String()
}
