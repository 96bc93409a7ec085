package patterns

import "testing"

var g1Frames = []string{
	"V  [libjvm.so+0x5b1c2e]  G1ParScanThreadState::copy_to_survivor_space(InCSetState, oopDesc*, markOopDesc*)+0x4e",
	"V  [libjvm.so+0x5b2a3c]  G1ParScanThreadState::trim_queue()+0x2bc",
	"V  [libjvm.so+0x5a1f19]  G1ParEvacuateFollowersClosure::do_void()+0x69",
	"V  [libjvm.so+0x5a4b2e]  G1ParTask::work(unsigned int)+0x45e",
	"V  [libjvm.so+0xb0c3f1]  GangWorker::loop()+0xd1",
}

func TestSignatureStableAcrossBuilds(t *testing.T) {
	rebuilt := []string{
		"V  [libjvm.so+0x6c1c2e]  G1ParScanThreadState::copy_to_survivor_space(InCSetState, oopDesc*, markOopDesc*)+0x5e",
		"V  [libjvm.so+0x6c2a3c]  G1ParScanThreadState::trim_queue()+0x2cc",
		"V  [libjvm.so+0x6b1f19]  G1ParEvacuateFollowersClosure::do_void()+0x79",
		"V  [libjvm.so+0x6b4b2e]  G1ParTask::work(unsigned int)+0x46e",
		"V  [libjvm.so+0xc0c3f1]  GangWorker::loop()+0xe1",
	}

	a := Signature("SIGSEGV", g1Frames)
	b := Signature("SIGSEGV", rebuilt)
	if a != b {
		t.Errorf("Signature() = %q and %q, expected equal", a, b)
	}
	if len(a) != signatureLength {
		t.Errorf("len(Signature()) = %d, expected %d", len(a), signatureLength)
	}
}

func TestSignatureCoversTopFrames(t *testing.T) {
	longer := append(append([]string{}, g1Frames...), "V  [libjvm.so+0x93d2b2]  java_start(Thread*)+0x102")
	if Signature("SIGSEGV", g1Frames) != Signature("SIGSEGV", longer) {
		t.Error("frames below the top five should not change the signature")
	}
}

func TestSignatureDistinguishes(t *testing.T) {
	base := Signature("SIGSEGV", g1Frames)
	tests := []struct {
		name   string
		kind   string
		frames []string
	}{
		{"other signal", "SIGBUS", g1Frames},
		{"other frames", "SIGSEGV", g1Frames[1:]},
	}
	for _, tt := range tests {
		if got := Signature(tt.kind, tt.frames); got == base {
			t.Errorf("%s: Signature() = %q, expected a different signature", tt.name, got)
		}
	}
}

func TestSignatureEmpty(t *testing.T) {
	if got := Signature("", nil); got != "" {
		t.Errorf("Signature(\"\", nil) = %q, expected empty", got)
	}
	if got := Signature("", []string{"   "}); got != "" {
		t.Errorf("Signature() of blank frames = %q, expected empty", got)
	}
	if got := Signature("out of memory", nil); got == "" {
		t.Error("Signature() with a kind should not be empty")
	}
}
