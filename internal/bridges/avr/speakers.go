package avr

// speakerNames maps the channel codes used by CV, SSLEV and SSSPC to the
// names shown to users.
var speakerNames = map[string]string{
	"FL":  "Front Left",
	"FR":  "Front Right",
	"C":   "Center",
	"SW":  "Subwoofer",
	"SW2": "Subwoofer 2",
	"SL":  "Surround Left",
	"SR":  "Surround Right",
	"SB":  "Surround Back",
	"SBL": "Surround Back Left",
	"SBR": "Surround Back Right",
	"FHL": "Front Height Left",
	"FHR": "Front Height Right",
	"FWL": "Front Wide Left",
	"FWR": "Front Wide Right",
	"TFL": "Top Front Left",
	"TFR": "Top Front Right",
	"TML": "Top Middle Left",
	"TMR": "Top Middle Right",
	"TRL": "Top Rear Left",
	"TRR": "Top Rear Right",
	"RHL": "Rear Height Left",
	"RHR": "Rear Height Right",
	"FDL": "Front Dolby Left",
	"FDR": "Front Dolby Right",
	"SDL": "Surround Dolby Left",
	"SDR": "Surround Dolby Right",
	"BDL": "Back Dolby Left",
	"BDR": "Back Dolby Right",
	"SHL": "Surround Height Left",
	"SHR": "Surround Height Right",
	"TS":  "Top Surround",
	"CH":  "Center Height",
}

var speakerCodes = func() map[string]string {
	m := make(map[string]string, len(speakerNames))
	for code, name := range speakerNames {
		m[name] = code
	}
	return m
}()

// SpeakerName returns the display name for a channel code.
func SpeakerName(code string) (string, bool) {
	name, ok := speakerNames[code]
	return name, ok
}

// SpeakerCode returns the channel code for a display name.
func SpeakerCode(name string) (string, bool) {
	code, ok := speakerCodes[name]
	return code, ok
}

// NormalizeSpeaker accepts either a channel code or a display name and
// returns the code. Unknown input is returned unchanged.
func NormalizeSpeaker(s string) string {
	if _, ok := speakerNames[s]; ok {
		return s
	}
	if code, ok := speakerCodes[s]; ok {
		return code
	}
	return s
}
