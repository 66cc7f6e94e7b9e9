// Package keys manages the single payment signing key used to fund and sign
// anchor transactions.
//
// Keys are ed25519 and are stored in the cardano-cli text envelope format, so
// a key created here can be used with cardano-cli and vice versa. Files that
// hold a bare hex seed are also accepted on load.
package keys
