package join

import "github.com/nghiaquy1991/PAN/pkg/mac"

// securityAutoRequestLevel is the security level used for beacon-mode
// auto requests.
const securityAutoRequestLevel uint8 = 0

// SecurityInit loads the default key into the MAC and enables frame
// security. frameCounter is the outgoing counter to resume from. It does
// nothing when security is disabled.
func (c *Controller) SecurityInit(frameCounter uint32) error {
	s := c.cfg.Security
	if !s.Enabled {
		return nil
	}

	err := c.mac.AddKeyInitFrameCounter(mac.KeyInit{
		Key:             s.Key,
		LookupData:      s.LookupData,
		LookupDataSize:  mac.KeyLookupLen,
		FrameCounter:    frameCounter,
		ReplaceKeyIndex: 0,
		NewKey:          true,
	})
	if err != nil {
		return err
	}
	if err := c.mac.SetArray(mac.AttrSecDefaultKeySource, s.KeySource[:]); err != nil {
		return err
	}
	err = c.mac.SetSecurityLevelEntry(mac.SecurityLevelEntry{
		Index:           0,
		FrameType:       mac.FrameTypeData,
		CommandFrameID:  mac.CommandDataRequest,
		SecurityMinimum: mac.SecLevelNone,
		OverrideMinimum: false,
	})
	if err != nil {
		return err
	}
	if err := c.mac.SetBool(mac.AttrSecurityEnabled, true); err != nil {
		return err
	}
	if c.cfg.BeaconEnabled() {
		return c.mac.SetUint8(mac.AttrSecAutoRequestSecurityLevel, securityAutoRequestLevel)
	}
	return nil
}

// SecurityFill fills the security parameters of an outgoing frame.
func (c *Controller) SecurityFill(sec *mac.Security) {
	*sec = mac.Security{}
	s := c.cfg.Security
	if !s.Enabled {
		return
	}
	copy(sec.KeySource[:], s.LookupData[:mac.KeySourceLen])
	sec.Level = s.Level
	sec.KeyIDMode = s.KeyIDMode
	sec.KeyIndex = s.KeyIndex
}

// SecurityCheck reports whether a received frame's security level is
// acceptable.
func (c *Controller) SecurityCheck(sec mac.Security) bool {
	if !c.cfg.Security.Enabled {
		return true
	}
	return sec.Level == c.cfg.Security.Level
}

// AddSecurityDevice adds a neighbor to the MAC device table so its frames
// can be authenticated.
func (c *Controller) AddSecurityDevice(panID, shortAddr uint16, ext mac.ExtAddr, frameCounter uint32) mac.Status {
	s := c.cfg.Security
	if !s.Enabled {
		return mac.StatusSuccess
	}
	return c.mac.AddDevice(mac.SecurityDevice{
		PANID:          panID,
		ShortAddr:      shortAddr,
		ExtAddr:        ext,
		FrameCounter:   frameCounter,
		Exempt:         false,
		LookupData:     s.LookupData,
		LookupDataSize: s.LookupDataSize,
	})
}
