package capability

import (
	"testing"

	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

func newTestProber() *Prober {
	return NewProber(zerolog.Nop())
}

func TestProbeHighTier(t *testing.T) {
	profile := newTestProber().Probe(FeatureReport{
		WebXRSupported: true,
		CameraAccess:   true,
		WebGLVersion:   2,
		MaxTextureSize: 4096,
	})
	if profile.PerformanceTier != domain.TierHigh {
		t.Fatalf("expected high tier, got %s", profile.PerformanceTier)
	}
}

func TestProbeMediumFallback(t *testing.T) {
	profile := newTestProber().Probe(FeatureReport{
		WebXRSupported: false,
		CameraAccess:   true,
		WebGLVersion:   1,
		MaxTextureSize: 2048,
	})
	if profile.PerformanceTier != domain.TierMedium {
		t.Fatalf("expected medium tier, got %s", profile.PerformanceTier)
	}
}

func TestProbeLowFallback(t *testing.T) {
	profile := newTestProber().Probe(FeatureReport{
		WebXRSupported: false,
		CameraAccess:   false,
		WebGLVersion:   1,
		MaxTextureSize: 512,
	})
	if profile.PerformanceTier != domain.TierLow {
		t.Fatalf("expected low tier, got %s", profile.PerformanceTier)
	}
}

func TestHighTierRequiresAllThreeConditions(t *testing.T) {
	base := FeatureReport{WebXRSupported: true, CameraAccess: true, WebGLVersion: 2, MaxTextureSize: 4096}

	noXR := base
	noXR.WebXRSupported = false
	oldGL := base
	oldGL.WebGLVersion = 1
	smallTex := base
	smallTex.MaxTextureSize = 2048

	for name, report := range map[string]FeatureReport{
		"no webxr":      noXR,
		"webgl1":        oldGL,
		"small texture": smallTex,
	} {
		if tier := newTestProber().Probe(report).PerformanceTier; tier == domain.TierHigh {
			t.Fatalf("%s: expected tier below high, got high", name)
		}
	}
}

// Every input combination must land in exactly one tier.
func TestTierDerivationTotality(t *testing.T) {
	bools := []bool{false, true}
	webglVersions := []int{-1, 0, 1, 2, 3}
	textureSizes := []int{-64, 0, 512, 2048, 4096, 8192}

	p := newTestProber()
	for _, xr := range bools {
		for _, cam := range bools {
			for _, gl := range webglVersions {
				for _, tex := range textureSizes {
					profile := p.Probe(FeatureReport{
						WebXRSupported: xr,
						CameraAccess:   cam,
						WebGLVersion:   gl,
						MaxTextureSize: tex,
					})
					if !profile.PerformanceTier.Valid() {
						t.Fatalf("no tier for xr=%v cam=%v gl=%d tex=%d", xr, cam, gl, tex)
					}
				}
			}
		}
	}
}

func TestProbeNormalizesOutOfRangeValues(t *testing.T) {
	profile := newTestProber().Probe(FeatureReport{WebGLVersion: -3, MaxTextureSize: -100})
	if profile.WebGLVersion != 0 {
		t.Fatalf("expected webgl version clamped to 0, got %d", profile.WebGLVersion)
	}
	if profile.MaxTextureSize != 0 {
		t.Fatalf("expected texture size clamped to 0, got %d", profile.MaxTextureSize)
	}
	if profile.PerformanceTier != domain.TierLow {
		t.Fatalf("expected low tier for degraded profile, got %s", profile.PerformanceTier)
	}
}
