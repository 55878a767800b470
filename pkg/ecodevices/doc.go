// Package ecodevices provides a client for GCE Eco-Devices energy
// monitors over their local HTTP/XML interface.
//
// # Basic Usage
//
//	client, err := ecodevices.NewClient("192.168.1.60")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	t1, err := client.Teleinfo(ctx, ecodevices.Channel1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// The client can be configured using functional options:
//
//	client, err := ecodevices.NewClient("192.168.1.60",
//	    ecodevices.WithPort(8080),
//	    ecodevices.WithCredentials("admin", "secret"),
//	    ecodevices.WithRequestTimeout(5*time.Second),
//	    ecodevices.WithProfile(ecodevices.ProfileSplitEndpoint),
//	    ecodevices.WithLogger(slog.Default()),
//	)
//
// A shared *http.Client can be passed with WithHTTPClient; Close then
// leaves it alone.
//
// # Errors
//
// Requests fail with *ConnectionError (timeout or transport failure),
// *AuthenticationError (HTTP 401) or *ProtocolError (not an Eco-Devices
// XML document). Each also matches ErrConnection, ErrAuthentication or
// ErrProtocol with errors.Is. Nothing is retried.
//
// # Protocol
//
// The device serves /status.xml, a <response> element holding flat
// tag/value pairs. Some firmwares move teleinformation to
// /protect/settings/teleinfo1.xml and teleinfo2.xml; select
// ProfileSplitEndpoint for those. Readings are never cached: every call
// makes a fresh request. Only plain HTTP is spoken.
package ecodevices
