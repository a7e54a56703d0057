package acars

// DownlinkStatus distinguishes an air-to-ground (downlink) message
// from a ground-to-air (uplink) one, per §3/§4.3 byte 11.
type DownlinkStatus int

const (
	AirToGround DownlinkStatus = iota
	GroundToAir
)

func (d DownlinkStatus) String() string {
	if d == GroundToAir {
		return "GroundToAir"
	}
	return "AirToGround"
}

// AckStatus records byte 7 of the frame: either a NACK or an ACK
// carrying the replied-to block id.
type AckStatus struct {
	Nack    bool
	BlockID byte // meaningful when !Nack
}

// AssembledMessage is the decoded output record of §3, emitted on the
// non-blocking output channel once parity and CRC have been validated
// (and, where possible, corrected).
type AssembledMessage struct {
	Channel       int
	Timestamp     int64
	FrequencyMHz  float64
	Mode          byte
	Tail          string
	Ack           AckStatus
	Label         string
	BlockID       byte
	MessageNumber string // 4 raw chars, optional
	MsgNumStem    string // first 3 chars of MessageNumber
	MsgNumSeq     byte   // 4th char, alphabetic sequence suffix
	FlightID      string // 6 chars, optional
	Sublabel      string // 2 chars, optional
	MFI           string // 2 chars, optional
	BlockStart    byte   // STX or ETX
	BlockEnd      byte   // ETX or ETB
	Text          []byte
	ParityErrors  int
	SignalLevelDB float64
	Downlink      DownlinkStatus
}

// knownSublabels lists the two-character ACARS codes parsed out of the
// header when present: as the sublabel, and, directly after a
// sublabel, as the MFI. It is not exhaustive of every code in use.
var knownSublabels = map[string]bool{
	"MD": true,
	"DF": true,
	"M1": true,
	"M2": true,
	"M3": true,
	"A6": true,
	"SQ": true,
}

// parseFields implements the §4.3 "Field parsing of text[0..len]"
// table over an already parity-stripped byte slice. It returns
// ok=false only when the header is too short to contain the fixed
// fields (bytes 0..12), which should not happen for a frame that
// already passed CRC.
func parseFields(text []byte, parityErrors int, level float64) (AssembledMessage, bool) {
	if len(text) < 13 {
		return AssembledMessage{}, false
	}

	msg := AssembledMessage{
		ParityErrors:  parityErrors,
		SignalLevelDB: level,
	}

	msg.Tail = string(text[0:7])

	ackByte := text[7]
	if ackByte == 0x15 {
		msg.Ack = AckStatus{Nack: true}
	} else {
		msg.Ack = AckStatus{BlockID: ackByte}
	}

	msg.Label = string(text[8:10])
	msg.BlockID = text[10]
	msg.Mode = text[11]

	blockIDIsDigit := msg.BlockID >= '0' && msg.BlockID <= '9'
	if ackByte != 0x15 || blockIDIsDigit {
		msg.Downlink = AirToGround
	} else {
		msg.Downlink = GroundToAir
	}

	msg.BlockStart = text[12]

	rest := text[13:]
	if msg.BlockStart == STX {
		if msg.Downlink == AirToGround {
			if len(rest) >= 4 {
				msg.MessageNumber = string(rest[0:4])
				if len(msg.MessageNumber) == 4 {
					msg.MsgNumStem = msg.MessageNumber[0:3]
					msg.MsgNumSeq = msg.MessageNumber[3]
				}
				rest = rest[4:]
			}
			if len(rest) >= 6 {
				msg.FlightID = string(rest[0:6])
				rest = rest[6:]
			}
		}

		if len(rest) >= 2 && isPrintablePair(rest[0:2]) && knownSublabels[string(rest[0:2])] {
			msg.Sublabel = string(rest[0:2])
			rest = rest[2:]
			if len(rest) >= 2 && isPrintablePair(rest[0:2]) && knownSublabels[string(rest[0:2])] {
				msg.MFI = string(rest[0:2])
				rest = rest[2:]
			}
		}

		if len(rest) > 0 {
			msg.BlockEnd = rest[len(rest)-1]
			msg.Text = rest[:len(rest)-1]
		}
	} else if len(rest) > 0 {
		msg.BlockEnd = rest[len(rest)-1]
		msg.Text = rest[:len(rest)-1]
	}

	return msg, true
}

func isPrintablePair(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}
