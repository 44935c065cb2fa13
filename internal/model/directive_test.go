package model

import (
	"testing"
	"time"
)

func TestTimingProfile_Offsets(t *testing.T) {
	cases := []struct {
		profile   TimingProfile
		wantOpen  time.Duration
		wantClose time.Duration
	}{
		{ProfileNormal, -45 * time.Second, 15 * time.Second},
		{ProfileAfter, 15 * time.Second, 75 * time.Second},
		{ProfileAfterVariation, 15 * time.Second, 10 * time.Minute},
	}
	for _, c := range cases {
		open, close := c.profile.Offsets()
		if open != c.wantOpen || close != c.wantClose {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", c.profile, open, close, c.wantOpen, c.wantClose)
		}
		if close <= open {
			t.Errorf("%s: close offset must be after open offset", c.profile)
		}
	}
}

func TestTimingProfile_Valid(t *testing.T) {
	for _, p := range []TimingProfile{ProfileNormal, ProfileAfter, ProfileAfterVariation} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if TimingProfile("immediately").Valid() {
		t.Error("unknown profile should be invalid")
	}
}
