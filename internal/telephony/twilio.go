package telephony

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crm-telephony/internal/calls"

	"github.com/twilio/twilio-go/twiml"
)

// Twilio is the adapter for Twilio Programmable Voice.
// Webhooks are application/x-www-form-urlencoded; responses are TwiML.
// Ref: https://www.twilio.com/docs/voice/twiml
type Twilio struct {
	Now func() time.Time
}

func NewTwilio() *Twilio {
	return &Twilio{Now: time.Now}
}

// twilioDialTimeout is used when a bridge carries no explicit timeout.
const twilioDialTimeout = 15

const (
	twimlEmpty    = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
	twimlFallback = `<?xml version="1.0" encoding="UTF-8"?><Response><Say language="` + calls.DefaultLanguage + `">` +
		calls.PromptError + `</Say><Hangup/></Response>`
)

// twilioInboundForm captures the subset of voice webhook fields we care about.
type twilioInboundForm struct {
	CallSid       string `json:"CallSid"`
	AccountSid    string `json:"AccountSid"`
	From          string `json:"From"`
	To            string `json:"To"`
	Direction     string `json:"Direction"`
	CallStatus    string `json:"CallStatus"`
	DialStatus    string `json:"DialCallStatus,omitempty"`
	CallerName    string `json:"CallerName,omitempty"`
	FromCountry   string `json:"FromCountry,omitempty"`
	ToCountry     string `json:"ToCountry,omitempty"`
	ForwardedFrom string `json:"ForwardedFrom,omitempty"`
}

func (a *Twilio) Name() string { return ProviderTwilio }

func (a *Twilio) Parse(r *http.Request) (calls.Event, bool) {
	if r == nil || r.ParseForm() != nil {
		return calls.Event{}, false
	}
	f := twilioInboundForm{
		CallSid:       strings.TrimSpace(r.PostFormValue("CallSid")),
		AccountSid:    r.PostFormValue("AccountSid"),
		From:          normalizePhone(r.PostFormValue("From")),
		To:            normalizePhone(r.PostFormValue("To")),
		Direction:     r.PostFormValue("Direction"),
		CallStatus:    r.PostFormValue("CallStatus"),
		DialStatus:    r.PostFormValue("DialCallStatus"),
		CallerName:    r.PostFormValue("CallerName"),
		FromCountry:   r.PostFormValue("FromCountry"),
		ToCountry:     r.PostFormValue("ToCountry"),
		ForwardedFrom: normalizePhone(r.PostFormValue("ForwardedFrom")),
	}
	if f.CallSid == "" {
		return calls.Event{}, false
	}

	// A <Dial> action callback reports the leg outcome in DialCallStatus.
	status := f.CallStatus
	if f.DialStatus != "" {
		status = f.DialStatus
	}

	raw, _ := json.Marshal(f)
	return calls.Event{
		CallID:     f.CallSid,
		From:       f.From,
		To:         f.To,
		Status:     calls.NormalizeStatus(status),
		Provider:   ProviderTwilio,
		Direction:  f.Direction,
		ReceivedAt: a.now(),
		Raw:        string(raw),
	}, true
}

// Normalize is the identity: TwiML answers implicitly on the first verb.
func (a *Twilio) Normalize(cmds []calls.Command) []calls.Command { return cmds }

func (a *Twilio) Render(cmds []calls.Command) (WireResponse, error) {
	verbs, err := twimlVerbs(cmds)
	if err != nil {
		return WireResponse{}, err
	}
	body, err := twiml.Voice(verbs)
	if err != nil {
		return WireResponse{}, fmt.Errorf("telephony: twiml render: %w", err)
	}
	return WireResponse{Status: http.StatusOK, ContentType: contentTypeXML, Body: []byte(body)}, nil
}

func (a *Twilio) RingOwner(to string, timeoutSecs int) WireResponse {
	return renderOrFallback(a, []calls.Command{calls.Bridge(to, timeoutSecs)})
}

func (a *Twilio) Voicemail(greeting string, maxLengthSecs int, transcribe bool) WireResponse {
	return renderOrFallback(a, calls.VoicemailSequence(greeting, maxLengthSecs, transcribe))
}

func (a *Twilio) Ignored() WireResponse {
	return WireResponse{Status: http.StatusOK, ContentType: contentTypeXML, Body: []byte(twimlEmpty)}
}

func (a *Twilio) Fallback() WireResponse {
	return WireResponse{Status: http.StatusOK, ContentType: contentTypeXML, Body: []byte(twimlFallback)}
}

func (a *Twilio) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func twimlVerbs(cmds []calls.Command) ([]twiml.Element, error) {
	verbs := make([]twiml.Element, 0, len(cmds))
	for _, c := range cmds {
		switch c.Kind {
		case calls.KindAnswer:
			// Implicit in TwiML.
		case calls.KindSpeak:
			verbs = append(verbs, &twiml.VoiceSay{Message: c.Text, Language: c.Language})
		case calls.KindPlayback:
			if strings.TrimSpace(c.AudioURL) == "" {
				return nil, errors.New("telephony: playback requires audio url")
			}
			verbs = append(verbs, &twiml.VoicePlay{Url: c.AudioURL})
		case calls.KindTransfer:
			d, err := twimlDial(c.To, "")
			if err != nil {
				return nil, err
			}
			verbs = append(verbs, d)
		case calls.KindBridge:
			secs := c.TimeoutSecs
			if secs <= 0 {
				secs = twilioDialTimeout
			}
			d, err := twimlDial(c.To, strconv.Itoa(secs))
			if err != nil {
				return nil, err
			}
			verbs = append(verbs, d)
		case calls.KindRecordStart:
			rec := &twiml.VoiceRecord{}
			if c.MaxLengthSecs > 0 {
				rec.MaxLength = strconv.Itoa(c.MaxLengthSecs)
			}
			if c.Transcribe {
				rec.Transcribe = "true"
			}
			verbs = append(verbs, rec)
		case calls.KindHangup:
			verbs = append(verbs, &twiml.VoiceHangup{})
		default:
			return nil, fmt.Errorf("telephony: twilio cannot render command %q", c.Kind)
		}
	}
	return verbs, nil
}

// twimlDial prefers <Sip> when the target looks like sip:..., otherwise <Number>.
func twimlDial(to, timeout string) (*twiml.VoiceDial, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, errors.New("telephony: dial target required")
	}
	var inner twiml.Element
	if isSIPTarget(to) {
		inner = &twiml.VoiceSip{SipUrl: to}
	} else {
		inner = &twiml.VoiceNumber{PhoneNumber: to}
	}
	return &twiml.VoiceDial{Timeout: timeout, InnerElements: []twiml.Element{inner}}, nil
}

func isSIPTarget(to string) bool {
	l := strings.ToLower(to)
	return strings.HasPrefix(l, "sip:") || strings.HasPrefix(l, "sips:")
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}
