package session

// ConfigOptions is config options for the session negotiator.
type ConfigOptions struct {
	// SignalURL is the signaling socket endpoint on the robot server,
	// e.g. wss://robot.local:8443/ws/signaling. Production deployments
	// use the secure scheme; plain ws is for local testing.
	SignalURL string

	WebRTCConfigOptions
}

// WebRTCConfigOptions mirrors the ICE resolver settings of the peer
// session.
type WebRTCConfigOptions struct {
	ICEServer  string
	Username   string
	Credential string
}
