package join

// Stats counts join-related activity since Init.
type Stats struct {
	JoinAttempts             uint32 `json:"joinAttempts"`
	JoinFails                uint32 `json:"joinFails"`
	SyncLossIndications      uint32 `json:"syncLossIndications"`
	FHPASolicitSent          uint32 `json:"fhNumPASolicitSent"`
	FHPANConfigSolicitsSent  uint32 `json:"fhNumPANConfigSolicitsSent"`
	FHPAReceived             uint32 `json:"fhNumPAReceived"`
	FHPANConfigReceived      uint32 `json:"fhNumPANConfigReceived"`
	PollRequests             uint32 `json:"pollRequests"`
	DataFailures             uint32 `json:"dataFailures"`
	FilteredAsyncIndications uint32 `json:"filteredAsyncIndications"`
	BlacklistedBeacons       uint32 `json:"blacklistedBeacons"`
	RejectedRequests         uint32 `json:"rejectedRequests"`
}
