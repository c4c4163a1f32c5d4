package mac

// PIB gives typed access to the MAC, frequency-hopping and security
// attribute sets.
type PIB interface {
	SetBool(attr Attribute, v bool) error
	SetUint8(attr Attribute, v uint8) error
	SetUint16(attr Attribute, v uint16) error
	SetUint32(attr Attribute, v uint32) error
	SetArray(attr Attribute, v []byte) error

	GetBool(attr Attribute) (bool, error)
	GetUint8(attr Attribute) (uint8, error)
	GetUint16(attr Attribute) (uint16, error)
	GetUint32(attr Attribute) (uint32, error)
	GetArray(attr Attribute) ([]byte, error)
}

// Service is the MAC sublayer as seen from the joining-device core.
//
// Request methods only queue the request. A nil error means the MAC accepted
// it; the outcome is delivered later on the registered EventSink. None of
// the methods may call back into the sink synchronously.
type Service interface {
	PIB

	Scan(req ScanRequest) error
	Associate(req AssociateRequest) error
	Disassociate(req DisassociateRequest) error
	Poll(req PollRequest) error
	Sync(req SyncRequest) error
	WSAsync(req AsyncRequest) error
	Data(req DataRequest) error

	// StartFH starts frequency-hopping operation with the FH PIB as
	// currently configured.
	StartFH() error

	AddKeyInitFrameCounter(k KeyInit) error
	AddDevice(d SecurityDevice) Status
	SetSecurityLevelEntry(e SecurityLevelEntry) error

	// RandomByte returns one byte from the MAC random generator.
	RandomByte() uint8
}

// EventSink receives MAC confirms and indications.
type EventSink interface {
	BeaconNotify(ind BeaconNotifyIndication)
	ScanConfirm(cnf ScanConfirm)
	AssociateConfirm(cnf AssociateConfirm)
	DisassociateConfirm(cnf DisassociateConfirm)
	DisassociateIndication(ind DisassociateIndication)
	SyncLossIndication(ind SyncLossIndication)
	PollConfirm(cnf PollConfirm)
	DataConfirm(cnf DataConfirm)
	WSAsyncIndication(ind AsyncIndication)
	WSAsyncConfirm(cnf AsyncConfirm)
}

// NopSink ignores every callback. Embed it to implement only part of
// EventSink.
type NopSink struct{}

func (NopSink) BeaconNotify(BeaconNotifyIndication)           {}
func (NopSink) ScanConfirm(ScanConfirm)                       {}
func (NopSink) AssociateConfirm(AssociateConfirm)             {}
func (NopSink) DisassociateConfirm(DisassociateConfirm)       {}
func (NopSink) DisassociateIndication(DisassociateIndication) {}
func (NopSink) SyncLossIndication(SyncLossIndication)         {}
func (NopSink) PollConfirm(PollConfirm)                       {}
func (NopSink) DataConfirm(DataConfirm)                       {}
func (NopSink) WSAsyncIndication(AsyncIndication)             {}
func (NopSink) WSAsyncConfirm(AsyncConfirm)                   {}

var _ EventSink = NopSink{}
