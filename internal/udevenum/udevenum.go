// Package udevenum implements device enumeration for the ALSA-family
// backends (drivers/alsa, drivers/umc202hd) using github.com/jochenvg/go-udev,
// a real teacher dependency. This is the "external collaborator" spec.md
// places out of scope for the core transport (§1, "device discovery at
// the OS level... exist only as external collaborators at the edges of
// the core") -- it never runs on the RT thread.
package udevenum

import (
	"sort"
	"strings"

	"github.com/jochenvg/go-udev"
)

// Sound enumerates ALSA PCM device nodes via udev's "sound" subsystem,
// returning ALSA-style hw:C,D identifiers alongside "default". Errors
// enumerating are swallowed to "default" only, matching query_devices'
// advisory contract (§4.5: "the returned list is advisory").
func Sound() []string {
	names := []string{"default"}

	u := udev.Udev{}
	e := u.NewEnumerate()
	if e == nil {
		return names
	}
	if err := e.AddMatchSubsystem("sound"); err != nil {
		return names
	}
	devices, err := e.Devices()
	if err != nil {
		return names
	}

	seen := make(map[string]bool)
	for _, d := range devices {
		sysname := d.Sysname()
		card, device, ok := parsePCMSysname(sysname)
		if !ok {
			continue
		}
		id := "hw:" + card + "," + device
		if !seen[id] {
			seen[id] = true
			names = append(names, id)
		}
	}
	sort.Strings(names[1:])
	return names
}

// parsePCMSysname extracts card/device indices from a udev sysname like
// "pcmC0D0p" or "pcmC1D0c".
func parsePCMSysname(s string) (card, device string, ok bool) {
	if !strings.HasPrefix(s, "pcmC") {
		return "", "", false
	}
	rest := s[len("pcmC"):]
	dIdx := strings.IndexByte(rest, 'D')
	if dIdx < 0 {
		return "", "", false
	}
	card = rest[:dIdx]
	rest = rest[dIdx+1:]
	// trailing 'p' (playback) or 'c' (capture) direction suffix
	if len(rest) > 0 {
		last := rest[len(rest)-1]
		if last == 'p' || last == 'c' {
			rest = rest[:len(rest)-1]
		}
	}
	if rest == "" || card == "" {
		return "", "", false
	}
	return card, rest, true
}

// MatchByNeedle normalizes both name and needle (strips whitespace,
// lowercases) and reports whether name contains needle -- the same
// normalize/contains heuristic as original_source's
// openasio-driver-umc202hd hint_matches_umc202hd.
func MatchByNeedle(name, needle string) bool {
	return strings.Contains(normalize(name), normalize(needle))
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(toLower(r))
	}
	return b.String()
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

// MatchUMC202HD filters Sound()'s advisory list down to names plausibly
// referring to a Behringer UMC202HD, falling back to a hardcoded guess
// when udev enumeration finds nothing -- mirroring
// enumerate_umc202hd_devices in original_source.
func MatchUMC202HD(all []string) []string {
	var out []string
	for _, n := range all {
		if MatchByNeedle(n, "umc202hd") {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		out = append(out, "hw:UMC202HD")
	}
	sort.Strings(out)
	return out
}
