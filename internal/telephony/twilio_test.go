package telephony

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crm-telephony/internal/calls"
)

func twilioRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestTwilioParse(t *testing.T) {
	a := &Twilio{Now: func() time.Time { return time.Unix(1700000000, 0).UTC() }}

	ev, ok := a.Parse(twilioRequest("CallSid=CA123&From=%2B15551234567&To=%2B15557654321&CallStatus=ringing&Direction=inbound"))
	if !ok {
		t.Fatalf("expected call event")
	}
	if ev.CallID != "CA123" || ev.From != "+15551234567" || ev.To != "+15557654321" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Status != calls.StatusRinging || ev.Provider != "twilio" {
		t.Fatalf("unexpected status/provider: %q %q", ev.Status, ev.Provider)
	}
	if !strings.Contains(ev.Raw, `"CallSid":"CA123"`) {
		t.Fatalf("expected raw payload, got %s", ev.Raw)
	}
}

func TestTwilioParsePrefersDialCallStatus(t *testing.T) {
	ev, ok := NewTwilio().Parse(twilioRequest("CallSid=CA1&To=%2B1&CallStatus=in-progress&DialCallStatus=no-answer"))
	if !ok || ev.Status != calls.StatusNoAnswer {
		t.Fatalf("expected no-answer from dial callback, got %+v", ev)
	}
}

func TestTwilioParseFailsClosed(t *testing.T) {
	a := NewTwilio()
	if _, ok := a.Parse(twilioRequest("From=%2B1&To=%2B2")); ok {
		t.Fatalf("expected missing CallSid to be ignored")
	}
	if _, ok := a.Parse(twilioRequest("CallSid=%zz")); ok {
		t.Fatalf("expected malformed form to be ignored")
	}
	if _, ok := a.Parse(nil); ok {
		t.Fatalf("expected nil request to be ignored")
	}
}

func TestTwilioRenderNotFound(t *testing.T) {
	res, err := NewTwilio().Render(calls.NumberNotFound())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(res.ContentType, "text/xml") {
		t.Fatalf("unexpected content type %q", res.ContentType)
	}
	body := string(res.Body)
	for _, want := range []string{"<Response>", `language="ru-RU"`, calls.PromptNumberNotFound, "<Hangup"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in %s", want, body)
		}
	}
}

func TestTwilioRenderBridge(t *testing.T) {
	a := NewTwilio()

	res, err := a.Render([]calls.Command{calls.Bridge("+79990000000", 20)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	body := string(res.Body)
	if !strings.Contains(body, `timeout="20"`) || !strings.Contains(body, "<Number>+79990000000</Number>") {
		t.Fatalf("unexpected dial: %s", body)
	}

	res, err = a.Render([]calls.Command{calls.Bridge("+79990000000", 0)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(res.Body), `timeout="15"`) {
		t.Fatalf("expected vendor default timeout, got %s", res.Body)
	}
}

func TestTwilioRenderTransferToSIP(t *testing.T) {
	res, err := NewTwilio().Render([]calls.Command{calls.Answer(), calls.Transfer("sip:asst@sip.vapi.ai")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	body := string(res.Body)
	if !strings.Contains(body, "<Sip>sip:asst@sip.vapi.ai</Sip>") {
		t.Fatalf("expected <Sip> dial, got %s", body)
	}
	if strings.Contains(body, "timeout=") {
		t.Fatalf("transfer must not carry a ring timeout: %s", body)
	}
}

func TestTwilioRenderAIFallback(t *testing.T) {
	cmds := []calls.Command{calls.Answer(), calls.Speak(calls.PromptAIUnavailable), calls.RecordStart("mp3", 120, false)}
	res, err := NewTwilio().Render(cmds)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	body := string(res.Body)
	if !strings.Contains(body, "Ассистент недоступен") || !strings.Contains(body, "<Record") {
		t.Fatalf("unexpected body: %s", body)
	}
	if strings.Contains(body, "<Dial") {
		t.Fatalf("fallback must not dial: %s", body)
	}
}

func TestTwilioRenderIsDeterministic(t *testing.T) {
	a := NewTwilio()
	cmds := []calls.Command{calls.Answer(), calls.Speak("hi"), calls.Playback("https://cdn.example.com/a.mp3"), calls.Bridge("+7", 25)}
	first, err := a.Render(cmds)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, _ := a.Render(cmds)
	if !bytes.Equal(first.Body, second.Body) {
		t.Fatalf("render is not deterministic:\n%s\n%s", first.Body, second.Body)
	}
}

func TestTwilioRenderRejectsIncompleteCommands(t *testing.T) {
	a := NewTwilio()
	for _, cmds := range [][]calls.Command{
		{calls.Transfer("")},
		{calls.Playback(" ")},
		{{Kind: "teleport"}},
	} {
		if _, err := a.Render(cmds); err == nil {
			t.Fatalf("expected error for %+v", cmds)
		}
	}
}

func TestTwilioConvenienceResponses(t *testing.T) {
	a := NewTwilio()

	ring := a.RingOwner("+7", 0)
	if !strings.Contains(string(ring.Body), `timeout="15"`) {
		t.Fatalf("unexpected ring owner: %s", ring.Body)
	}
	vm := a.Voicemail("", 0, true)
	if !strings.Contains(string(vm.Body), calls.PromptVoicemail) || !strings.Contains(string(vm.Body), `maxLength="120"`) ||
		!strings.Contains(string(vm.Body), `transcribe="true"`) {
		t.Fatalf("unexpected voicemail: %s", vm.Body)
	}
	if got := a.RingOwner("", 0); !bytes.Equal(got.Body, a.Fallback().Body) {
		t.Fatalf("expected fallback for unrenderable ring, got %s", got.Body)
	}
	if ign := a.Ignored(); ign.Status != http.StatusOK || !strings.Contains(string(ign.Body), "<Response></Response>") {
		t.Fatalf("unexpected ignored response: %+v", ign)
	}
}
