package capability

import (
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

// FeatureReport is the raw feature detection payload sent by the browser
// runtime. Absent fields decode to their zero values, which are the safe
// defaults: a feature the client could not detect counts as unsupported.
type FeatureReport struct {
	WebXRSupported    bool `json:"webxr_supported"`
	CameraAccess      bool `json:"camera_access"`
	Gyroscope         bool `json:"gyroscope"`
	Accelerometer     bool `json:"accelerometer"`
	DeviceOrientation bool `json:"device_orientation"`
	WebGLVersion      int  `json:"webgl_version"`
	MaxTextureSize    int  `json:"max_texture_size"`
}

type Prober struct {
	logger zerolog.Logger
}

func NewProber(logger zerolog.Logger) *Prober {
	return &Prober{logger: logger}
}

// Probe normalizes a client feature report into a capability profile and
// derives its performance tier. It never fails: out-of-range values degrade
// to their safe defaults.
func (p *Prober) Probe(report FeatureReport) domain.CapabilityProfile {
	profile := domain.CapabilityProfile{
		WebXRSupported:    report.WebXRSupported,
		CameraAccess:      report.CameraAccess,
		Gyroscope:         report.Gyroscope,
		Accelerometer:     report.Accelerometer,
		DeviceOrientation: report.DeviceOrientation,
		WebGLVersion:      clampWebGLVersion(report.WebGLVersion),
		MaxTextureSize:    report.MaxTextureSize,
	}
	if profile.MaxTextureSize < 0 {
		profile.MaxTextureSize = 0
	}

	profile.PerformanceTier = DeriveTier(profile)

	p.logger.Debug().
		Bool("webxr", profile.WebXRSupported).
		Bool("camera", profile.CameraAccess).
		Int("webgl_version", profile.WebGLVersion).
		Int("max_texture_size", profile.MaxTextureSize).
		Str("tier", string(profile.PerformanceTier)).
		Msg("capability profile derived")

	return profile
}

// DeriveTier is the priority cascade over the measured fields: each tier's
// conditions must all hold, checked high to medium to low, first match wins.
func DeriveTier(p domain.CapabilityProfile) domain.PerformanceTier {
	if p.WebXRSupported && p.WebGLVersion == 2 && p.MaxTextureSize >= 4096 {
		return domain.TierHigh
	}
	if p.CameraAccess && p.WebGLVersion >= 1 && p.MaxTextureSize >= 2048 {
		return domain.TierMedium
	}
	return domain.TierLow
}

func clampWebGLVersion(v int) int {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
}
