package controller

// Mode is the system mode shown on the status row.
type Mode uint8

const (
	ModeInit Mode = iota
	ModeReady
	ModeListening
	ModeSpeaking
	ModeInUse
	ModeDisconnected
)

// Status texts, in the device's display language.
const (
	TextInit         = "Inicializando..."
	TextReady        = "Aguardando"
	TextInUse        = "Em uso"
	TextSpeaking     = "Transcrevendo tela"
	TextListening    = "Ouvindo"
	TextListenPrompt = "Pronto pra ouvir"
	TextDisconnected = "USB desconectado"
	TextBeaconSent   = "Mensagem enviada"

	// Beacon is written to the passthrough link when B is pressed on a
	// device without a microphone.
	Beacon = "Mensagem para smartphone"
)

func (m Mode) String() string {
	switch m {
	case ModeInit:
		return "init"
	case ModeReady:
		return "ready"
	case ModeListening:
		return "listening"
	case ModeSpeaking:
		return "speaking"
	case ModeInUse:
		return "in-use"
	case ModeDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Text returns the status row text for m.
func (m Mode) Text() string {
	switch m {
	case ModeInit:
		return TextInit
	case ModeReady:
		return TextReady
	case ModeListening:
		return TextListening
	case ModeSpeaking:
		return TextSpeaking
	case ModeInUse:
		return TextInUse
	case ModeDisconnected:
		return TextDisconnected
	default:
		return ""
	}
}

// idle reports whether auxiliary button actions may start in m.
func (m Mode) idle() bool {
	return m == ModeReady || m == ModeInUse
}
