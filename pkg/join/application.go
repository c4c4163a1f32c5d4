package join

// Application receives the notifications the controller produces.
// Callbacks run on the goroutine that called Process or the public
// operation that caused them, after the controller's lock is released.
type Application interface {
	// Joined is called when the node has associated or rejoined.
	Joined(dev DeviceDescriptor, parent ParentInfo)

	// Disassociated is called when the node has left the network.
	Disassociated(d Disassociation)

	// StateChanged is called on every join state transition.
	StateChanged(state JoinState)
}

// NopApplication ignores every notification. Embed it to implement only
// part of Application.
type NopApplication struct{}

func (NopApplication) Joined(DeviceDescriptor, ParentInfo) {}
func (NopApplication) Disassociated(Disassociation)        {}
func (NopApplication) StateChanged(JoinState)              {}

var _ Application = NopApplication{}

// MultiApplication fans notifications out to several applications in
// order.
type MultiApplication []Application

// NewMultiApplication drops nil entries.
func NewMultiApplication(apps ...Application) MultiApplication {
	m := make(MultiApplication, 0, len(apps))
	for _, a := range apps {
		if a != nil {
			m = append(m, a)
		}
	}
	return m
}

func (m MultiApplication) Joined(dev DeviceDescriptor, parent ParentInfo) {
	for _, a := range m {
		a.Joined(dev, parent)
	}
}

func (m MultiApplication) Disassociated(d Disassociation) {
	for _, a := range m {
		a.Disassociated(d)
	}
}

func (m MultiApplication) StateChanged(state JoinState) {
	for _, a := range m {
		a.StateChanged(state)
	}
}
