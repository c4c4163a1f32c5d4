package mac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupIEsStopsAtTermination(t *testing.T) {
	payload, err := AppendGroupIE(nil, IEGroupMLME, []byte{1, 2})
	require.NoError(t, err)
	payload, err = AppendGroupIE(payload, IEGroupTermination, nil)
	require.NoError(t, err)
	payload, err = AppendGroupIE(payload, IEGroupWiSUN, []byte{9})
	require.NoError(t, err)

	var buf [4]IE
	ies, err := ParseGroupIEs(payload, buf[:])
	require.NoError(t, err)
	require.Len(t, ies, 1)
	assert.Equal(t, IEGroupMLME, ies[0].ID)
	assert.True(t, ies[0].Long)
	assert.Equal(t, []byte{1, 2}, ies[0].Content)
}

func TestParseGroupIEsRejectsShortType(t *testing.T) {
	payload, err := AppendSubIE(nil, 3, false, []byte{1})
	require.NoError(t, err)

	var buf [4]IE
	_, err = ParseGroupIEs(payload, buf[:])
	assert.ErrorIs(t, err, ErrIEType)
}

func TestParseIEsTruncated(t *testing.T) {
	payload, err := AppendGroupIE(nil, IEGroupWiSUN, []byte{1, 2, 3})
	require.NoError(t, err)

	var buf [4]IE
	_, err = ParseGroupIEs(payload[:len(payload)-1], buf[:])
	assert.ErrorIs(t, err, ErrIETruncated)

	_, err = ParseGroupIEs([]byte{0x01}, buf[:])
	assert.ErrorIs(t, err, ErrIETruncated)
}

func TestParseIEsOverflowKeepsPrefix(t *testing.T) {
	var content []byte
	for id := uint8(1); id <= 3; id++ {
		var err error
		content, err = AppendSubIE(content, id, false, []byte{id})
		require.NoError(t, err)
	}

	var buf [2]IE
	ies, err := ParseSubIEs(content, buf[:])
	assert.True(t, errors.Is(err, ErrIEOverflow))
	require.Len(t, ies, 2)
	assert.Equal(t, uint8(2), ies[1].ID)
}

func TestParseSubIEsShortAndLong(t *testing.T) {
	content, err := AppendSubIE(nil, SubIEUnicastSchedule, true, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	content, err = AppendSubIE(content, SubIENetName, false, []byte("net"))
	require.NoError(t, err)

	var buf [MaxSubIEs]IE
	ies, err := ParseSubIEs(content, buf[:])
	require.NoError(t, err)
	require.Len(t, ies, 2)
	assert.True(t, ies[0].Long)
	assert.Equal(t, SubIEUnicastSchedule, ies[0].ID)
	assert.False(t, ies[1].Long)
	assert.Equal(t, SubIENetName, ies[1].ID)
	assert.Equal(t, "net", string(ies[1].Content))
}

func TestAppendSubIETooLong(t *testing.T) {
	_, err := AppendSubIE(nil, SubIENetName, false, make([]byte, 256))
	assert.ErrorIs(t, err, ErrIETooLong)
}

func TestWisunRoundTrip(t *testing.T) {
	in := WisunIEs{
		NetName:    []byte("FHTest"),
		HasNetName: true,
		PAN: PANInfo{
			Size:          12,
			RoutingCost:   0,
			UseParentBSIE: true,
			RoutingMethod: 1,
			EAPOLReady:    true,
			FANTPSVersion: 1,
		},
		HasPAN:        true,
		PANVersion:    7,
		HasPANVersion: true,
		HasGTKHashes:  true,
		Schedule: UnicastSchedule{
			DwellInterval:   250,
			ClockDrift:      255,
			TimingAccuracy:  10,
			ChannelFunction: ChannelFunctionDH1CF,
		},
		HasSchedule: true,
	}
	in.GTKHashes[2][0] = 0xAA

	payload, err := AppendWisun(nil, in)
	require.NoError(t, err)

	out, err := ParseWisun(payload)
	require.NoError(t, err)

	assert.True(t, out.NetNameEquals("FHTest"))
	assert.False(t, out.NetNameEquals("Other"))
	assert.Equal(t, in.PAN, out.PAN)
	assert.Equal(t, in.PANVersion, out.PANVersion)
	assert.Equal(t, in.GTKHashes, out.GTKHashes)
	assert.Equal(t, in.Schedule, out.Schedule)
}

func TestWisunIgnoresOtherGroupsAndShortContent(t *testing.T) {
	sub, err := AppendSubIE(nil, SubIEPAN, false, []byte{1, 2})
	require.NoError(t, err)
	payload, err := AppendGroupIE(nil, IEGroupMLME, []byte{0xFF})
	require.NoError(t, err)
	payload, err = AppendGroupIE(payload, IEGroupWiSUN, sub)
	require.NoError(t, err)

	out, err := ParseWisun(payload)
	require.NoError(t, err)
	assert.False(t, out.HasPAN)
	assert.False(t, out.HasNetName)
}

func TestNetNameEqualsTrimsPadding(t *testing.T) {
	w := WisunIEs{NetName: []byte("abc\x00\x00"), HasNetName: true}
	assert.True(t, w.NetNameEquals("abc"))

	var none WisunIEs
	assert.False(t, none.NetNameEquals(""))
}
