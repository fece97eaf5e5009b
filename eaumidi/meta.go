package eaumidi

import (
	"bytes"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Private payload tags carried in sequencer-specific meta events
const (
	tagChannels = "EAUC"
	tagNames    = "EAUN"
	loopCue     = "LOOP"
)

// taggedBlob returns the payload of a sequencer-specific meta starting with tag
func taggedBlob(msg smf.Message, tag string) ([]byte, bool) {
	var data []byte
	if !msg.GetMetaSeqData(&data) || !bytes.HasPrefix(data, []byte(tag)) {
		return nil, false
	}
	return data[len(tag):], true
}

func isLoopCue(msg smf.Message) bool {
	var text string
	return msg.GetMetaCuepoint(&text) && text == loopCue
}
