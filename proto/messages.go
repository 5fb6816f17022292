// Package proto defines the plain request and reply records that cross
// the registry's RPC boundary, shaped exactly as spec.md section 6
// describes them. Real generated protobuf/gRPC stubs are deliberately
// not produced here — see DESIGN.md for why — these are the envelopes an
// external transport adapter is responsible for filling in and reading
// back (spec.md section 1: "Out of scope: the RPC transport and its
// generated request/response envelopes").
package proto

// StatusPacket mirrors the uniform status envelope of spec.md section
// 4.C on the wire. Code 0 (SUCCESS) is never sent; its absence means
// success, so handlers only ever construct a *StatusPacket for failure.
type StatusPacket struct {
	Code         int32
	ErrorMessage string
}

// AuthorizeRequest asks the registry for a client token scoped to one
// interface.
type AuthorizeRequest struct {
	ProtobufName string
}

// AuthorizeResponse carries the minted client token, or a status on
// failure.
type AuthorizeResponse struct {
	Token  string
	Status *StatusPacket
}

// RegisterRequest announces one endpoint as a provider of one interface.
type RegisterRequest struct {
	ProtobufName string
	ProtobufURL  string
}

// RegisterResponse carries the minted server token, or a status on
// failure.
type RegisterResponse struct {
	Token  string
	Status *StatusPacket
}

// DeRegisterRequest withdraws the endpoint identified by the server
// token.
type DeRegisterRequest struct {
	Token string
}

// DeRegisterResponse carries nothing but a status on failure.
type DeRegisterResponse struct {
	Status *StatusPacket
}

// FindProviderRequest asks for a live endpoint of an interface, with an
// optional selection-policy preference.
type FindProviderRequest struct {
	RegistryToken string
	ProtobufName  string
	ByRoundRobin  bool
	ByLowestUse   bool
}

// FindProviderResponse carries the chosen endpoint's url, or a status on
// failure.
type FindProviderResponse struct {
	ServiceURL string
	Status     *StatusPacket
}

// KeepaliveReport is a provider's unsolicited liveness/utilization
// signal.
type KeepaliveReport struct {
	Token          string
	NumberRequests uint32
}

// KeepAliveResponse carries nothing but a status on failure.
type KeepAliveResponse struct {
	Status *StatusPacket
}

// ProviderReportRequest asks for a snapshot of every registered
// interface and its endpoints.
type ProviderReportRequest struct {
	Token string
}

// ProviderInstance is one endpoint's reported liveness/utilization.
type ProviderInstance struct {
	ServiceURL string
	Requests   uint32
}

// ProviderEntry groups the instances registered under one interface.
type ProviderEntry struct {
	ProtobufName string
	Instances    []ProviderInstance
}

// ProviderReportResponse carries the full registry snapshot, or a status
// on failure.
type ProviderReportResponse struct {
	Providers []ProviderEntry
	Status    *StatusPacket
}
