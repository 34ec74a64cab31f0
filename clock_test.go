package ticktock

import (
	"errors"
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Fatalf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestRealClockNewTimerFires(t *testing.T) {
	tmr := RealClock{}.NewTimer(10 * time.Millisecond)

	select {
	case ts := <-tmr.C():
		if ts.IsZero() {
			t.Fatal("timer fired with zero time")
		}
	case <-time.After(time.Second):
		t.Fatal("timer did not fire within 1s")
	}
}

func TestRealClockNewTimerStopReset(t *testing.T) {
	tmr := RealClock{}.NewTimer(time.Hour)

	if !tmr.Stop() {
		t.Fatal("Stop() = false, want true for unfired timer")
	}

	tmr.Reset(10 * time.Millisecond)

	select {
	case <-tmr.C():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after Reset within 1s")
	}
}

func TestClockImplementations(t *testing.T) {
	var _ Clock = RealClock{}
	var _ Clock = (*FakeClock)(nil)
	var _ Timer = (*fakeTimer)(nil)
}

// ---------------------------------------------------------------------------
// ClockTime
// ---------------------------------------------------------------------------

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "00:00", want: ClockTime{0, 0}},
		{in: "07:05", want: ClockTime{7, 5}},
		{in: "23:59", want: ClockTime{23, 59}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "7:05", wantErr: true},
		{in: "+1:00", wantErr: true},
		{in: "07-05", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseClockTime(%q) error = %v, want ErrInvalidInput", tt.in, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseClockTime(%q) error = %v", tt.in, err)
			}

			if got != tt.want {
				t.Fatalf("ParseClockTime(%q) = %+v, want %+v", tt.in, got, tt.want)
			}

			if got.String() != tt.in {
				t.Fatalf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestClockTimeNextAfter(t *testing.T) {
	base := time.Date(2024, time.March, 9, 21, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		ct   ClockTime
		want time.Time
	}{
		{"later today", ClockTime{22, 0}, time.Date(2024, time.March, 9, 22, 0, 0, 0, time.UTC)},
		{"earlier is tomorrow", ClockTime{6, 0}, time.Date(2024, time.March, 10, 6, 0, 0, 0, time.UTC)},
		{"equal is tomorrow", ClockTime{21, 30}, time.Date(2024, time.March, 10, 21, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ct.NextAfter(base); !got.Equal(tt.want) {
				t.Fatalf("NextAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClockTimeNextAfterMonthEnd(t *testing.T) {
	base := time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC)

	got := ClockTime{6, 30}.NextAfter(base)
	want := time.Date(2024, time.March, 1, 6, 30, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Fatalf("NextAfter() = %v, want %v", got, want)
	}
}
