package indi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/roman-kulish/skytrack/internal/mount"
)

const testDevice = "Telescope Simulator"

// TestHelperProcess stands in for indi_getprop. The reply is selected through
// INDI_FAKE_REPLY.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("INDI_FAKE_REPLY") {
	case "radec":
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD.RA=5.919500")
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD.DEC=7.407100")
	case "altaz":
		fmt.Println("Other Device.HORIZONTAL_COORD.ALT=1")
		fmt.Println(testDevice + ".HORIZONTAL_COORD.ALT=42.5")
		fmt.Println(testDevice + ".HORIZONTAL_COORD.AZ=181.25")
	case "busy":
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD._STATE=Busy")
	case "ok":
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD._STATE=Ok")
	case "alert":
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD._STATE=Alert")
	case "garbage":
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD.RA=fast")
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD.DEC=1")
	case "partial":
		fmt.Println(testDevice + ".EQUATORIAL_EOD_COORD.RA=1")
	case "fail":
		fmt.Fprintln(os.Stderr, "connect: Connection refused")
		os.Exit(1)
	}
	os.Exit(0)
}

func fakeLink(reply string) *Link {
	command := func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "INDI_FAKE_REPLY="+reply)
		return cmd
	}
	return newLink(Runtime, Config{Host: "localhost", Port: DefaultPort, Device: testDevice}, command)
}

func TestPositionRADec(t *testing.T) {
	pos, err := fakeLink("radec").PositionRADec(context.Background())
	if err != nil {
		t.Fatalf("PositionRADec() error = %v", err)
	}
	if pos != (mount.RADec{RAHours: 5.9195, DecDegrees: 7.4071}) {
		t.Errorf("PositionRADec() = %+v", pos)
	}
}

func TestPositionAltAz(t *testing.T) {
	pos, err := fakeLink("altaz").PositionAltAz(context.Background())
	if err != nil {
		t.Fatalf("PositionAltAz() error = %v", err)
	}
	if pos != (mount.AltAz{AltDegrees: 42.5, AzDegrees: 181.25}) {
		t.Errorf("PositionAltAz() = %+v", pos)
	}
}

func TestIsSlewing(t *testing.T) {
	tests := []struct {
		reply   string
		want    bool
		wantErr bool
	}{
		{reply: "busy", want: true},
		{reply: "ok", want: false},
		{reply: "alert", wantErr: true},
		{reply: "radec", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := fakeLink(tt.reply).IsSlewing(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsSlewing() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !mount.IsTransport(err) {
				t.Errorf("error is not a transport error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsSlewing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkFailures(t *testing.T) {
	for _, reply := range []string{"fail", "garbage", "partial"} {
		t.Run(reply, func(t *testing.T) {
			_, err := fakeLink(reply).PositionRADec(context.Background())
			if !mount.IsTransport(err) {
				t.Fatalf("PositionRADec() error = %v, want transport error", err)
			}
		})
	}

	_, err := fakeLink("fail").PositionRADec(context.Background())
	if !strings.Contains(err.Error(), "Connection refused") {
		t.Errorf("stderr not included in error: %v", err)
	}
}

func TestLinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fakeLink("radec").PositionRADec(ctx)
	if !mount.IsTransport(err) || !errors.Is(err, context.Canceled) {
		t.Errorf("PositionRADec() error = %v, want transport error wrapping context.Canceled", err)
	}
}

func TestParseProperties(t *testing.T) {
	input := strings.Join([]string{
		"",
		"Telescope Simulator.EQUATORIAL_EOD_COORD.RA=1.5",
		"  Telescope Simulator.EQUATORIAL_EOD_COORD.DEC = -20 ",
		"CCD Simulator.CCD_TEMPERATURE.VALUE=-10",
	}, "\n")

	props, err := parseProperties(strings.NewReader(input), testDevice)
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 2 || props[propRA] != "1.5" {
		t.Errorf("parseProperties() = %v", props)
	}

	if _, err := parseProperties(strings.NewReader("no equals sign"), testDevice); err == nil {
		t.Error("malformed line should fail")
	}
}
