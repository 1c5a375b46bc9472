package identifier

import "testing"

func TestNormalize_AcceptedShapesAgree(t *testing.T) {
	inputs := []string{
		"https://t.me/some_channel",
		"http://t.me/some_channel",
		"t.me/some_channel",
		"telegram.me/some_channel",
		"@some_channel",
		"some_channel",
		"  some_channel  ",
		"https://t.me/some_channel/",
		"https://t.me/some_channel?start=1",
		"@Some_Channel",
		"SOME_CHANNEL",
		"https://t.me/Some_Channel",
	}

	for _, in := range inputs {
		got, ok := Normalize(in)
		if !ok {
			t.Errorf("Normalize(%q) rejected, want accepted", in)
			continue
		}
		if got != "@some_channel" {
			t.Errorf("Normalize(%q) = %q, want @some_channel", in, got)
		}
	}
}

func TestNormalize_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"two words",
		"name-with-dash",
		"emoji😀name",
		"abc",             // too short for a public page
		"https://t.me/",   // link with no name
		"https://evil.example/some_channel",
		"@",
		"@@double",
		"name!with!bang",
	}

	for _, in := range inputs {
		if got, ok := Normalize(in); ok {
			t.Errorf("Normalize(%q) = %q, want rejection", in, got)
		}
	}
}

func TestUsername(t *testing.T) {
	if got := Username("@foo_bar1"); got != "foo_bar1" {
		t.Errorf("Username(@foo_bar1) = %q, want foo_bar1", got)
	}
}
