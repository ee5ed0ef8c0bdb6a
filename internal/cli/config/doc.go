// Package config defines the netverify-cli configuration and its on-disk
// form.
//
// Values are layered defaults < ~/.netverify/cli.yaml < NETVERIFY_* env <
// command-line flags. The engine API key is sealed with pkg/crypto/adaptive
// before it is written, using the key file secret.key in the state
// directory.
package config
