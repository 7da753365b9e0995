package mailenv

import "testing"

func TestNewAddressDetectsSMTPUTF8(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"a@b.com", false},
		{"tü@t", true},
		{"año@ñudo", true},
	}
	for _, c := range cases {
		a := NewAddress(c.addr)
		if a.NeedsSMTPUTF8 != c.want {
			t.Errorf("NewAddress(%q).NeedsSMTPUTF8 = %v, want %v", c.addr, a.NeedsSMTPUTF8, c.want)
		}
	}
}

func TestEnvelopeNeedsSMTPUTF8(t *testing.T) {
	e := &Envelope{
		To: []Address{NewAddress("tü@t")},
	}
	if !e.NeedsSMTPUTF8() {
		t.Errorf("expected NeedsSMTPUTF8")
	}
	if e.Needs8BitMime() {
		t.Errorf("did not expect Needs8BitMime when SMTPUTF8 is needed")
	}
}

func TestEnvelope8BitMime(t *testing.T) {
	e := &Envelope{
		To:   []Address{NewAddress("a@b.com")},
		Mail: Mail{Encoding: Mime8bit},
	}
	if e.NeedsSMTPUTF8() {
		t.Errorf("did not expect SMTPUTF8")
	}
	if !e.Needs8BitMime() {
		t.Errorf("expected Needs8BitMime")
	}
}
