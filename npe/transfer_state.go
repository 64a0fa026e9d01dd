package npe

// PETransferState is the engine's mutable per-transfer runtime state. It
// is created once from a WorkloadTransfer, mutated only by the engine and
// the device model's congestion pass, and discarded when the run ends.
type PETransferState struct {
	Params *WorkloadTransfer

	StartCycle uint32
	EndCycle   uint32

	Route []LinkID

	RequiredBy []CheckpointID
	DependsOn  CheckpointID

	CurrBandwidth float32

	TotalBytesTransferred uint64

	// firstLinkType caches Route[0]'s LinkType (or is meaningless when
	// Route is empty) for NIU bucketing; set at initTransferState time.
	firstLinkType LinkType
}

// NewPETransferState builds the initial runtime state for one transfer,
// given its precomputed route.
func NewPETransferState(params *WorkloadTransfer, route []LinkID, firstLinkType LinkType) *PETransferState {
	return &PETransferState{
		Params:     params,
		StartCycle: params.PhaseCycleOffset,
		Route:      route,
		DependsOn:  UndefinedCheckpoint,
		firstLinkType: firstLinkType,
	}
}

// RemainingBytes returns the bytes not yet transferred.
func (ts *PETransferState) RemainingBytes() uint64 {
	total := ts.Params.TotalBytes()
	if ts.TotalBytesTransferred >= total {
		return 0
	}
	return total - ts.TotalBytesTransferred
}

// Complete reports whether every byte has been transferred.
func (ts *PETransferState) Complete() bool {
	return ts.TotalBytesTransferred >= ts.Params.TotalBytes()
}
