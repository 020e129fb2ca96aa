package frame

// Channels specifies the order in which channels are stored in a frame, and
// whether inter-channel decorrelation is used.
type Channels uint8

// Channel assignments. The first 8 constants follow the SMPTE/ITU-R channel
// order; the last three specify inter-channel decorrelation of a stereo
// signal (left/side, side/right, mid/side).
const (
	ChannelsMono           Channels = iota // 1 channel: mono
	ChannelsLR                             // 2 channels: left, right
	ChannelsLRC                            // 3 channels: left, right, center
	ChannelsLRLsRs                         // 4 channels: left, right, left surround, right surround
	ChannelsLRCLsRs                        // 5 channels: left, right, center, left surround, right surround
	ChannelsLRCLfeLsRs                     // 6 channels: left, right, center, LFE, left surround, right surround
	ChannelsLRCLfeCsSlSr                   // 7 channels: left, right, center, LFE, center surround, side left, side right
	ChannelsLRCLfeLsRsSlSr                 // 8 channels: left, right, center, LFE, left surround, right surround, side left, side right
	ChannelsLeftSide                       // 2 channels: left, side; using inter-channel decorrelation
	ChannelsSideRight                      // 2 channels: side, right; using inter-channel decorrelation
	ChannelsMidSide                        // 2 channels: mid, side; using inter-channel decorrelation
)

// channelCount maps from a channel assignment to its number of channels.
var channelCount = [...]int{
	ChannelsMono:           1,
	ChannelsLR:             2,
	ChannelsLRC:            3,
	ChannelsLRLsRs:         4,
	ChannelsLRCLsRs:        5,
	ChannelsLRCLfeLsRs:     6,
	ChannelsLRCLfeCsSlSr:   7,
	ChannelsLRCLfeLsRsSlSr: 8,
	ChannelsLeftSide:       2,
	ChannelsSideRight:      2,
	ChannelsMidSide:        2,
}

// Count returns the number of channels (subframes) used by the channel
// assignment.
func (channels Channels) Count() int {
	return channelCount[channels]
}

func (channels Channels) String() string {
	m := [...]string{
		ChannelsMono:           "mono",
		ChannelsLR:             "left, right",
		ChannelsLRC:            "left, right, center",
		ChannelsLRLsRs:         "left, right, left surround, right surround",
		ChannelsLRCLsRs:        "left, right, center, left surround, right surround",
		ChannelsLRCLfeLsRs:     "left, right, center, LFE, left surround, right surround",
		ChannelsLRCLfeCsSlSr:   "left, right, center, LFE, center surround, side left, side right",
		ChannelsLRCLfeLsRsSlSr: "left, right, center, LFE, left surround, right surround, side left, side right",
		ChannelsLeftSide:       "left/side",
		ChannelsSideRight:      "side/right",
		ChannelsMidSide:        "mid/side",
	}
	return m[channels]
}

// decorrelated reports whether the channel assignment uses inter-channel
// decorrelation, i.e. the two stored channels are not plain left/right.
func (channels Channels) decorrelated() bool {
	switch channels {
	case ChannelsLeftSide, ChannelsSideRight, ChannelsMidSide:
		return true
	}
	return false
}
