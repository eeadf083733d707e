package refract

import "time"

// Domain names for the built-in stores.
const (
	DomainColor      = "color"
	DomainLighting   = "lighting"
	DomainCamera     = "camera"
	DomainDistortion = "distortion"
	DomainExport     = "export"
)

// MirrorTransparentBackground is the shared cross-domain name for the
// transparency flag. The color domain is authoritative; the export domain
// holds a read-only projection.
const MirrorTransparentBackground = "transparentBackground"

// DomainSpec is one domain's name and parameter definitions.
type DomainSpec struct {
	Name        string
	Definitions []Definition
}

// rebuildDebounce is the coalescing window for parameters whose push
// triggers a geometry rebuild.
const rebuildDebounce = 150 * time.Millisecond

// DefaultDomains returns the built-in five-domain parameter surface of
// the editor.
func DefaultDomains() []DomainSpec {
	return []DomainSpec{
		{
			Name: DomainColor,
			Definitions: []Definition{
				{
					Key:        "backgroundColor",
					Default:    "#1a1a2e",
					FacadeName: "bgColor",
					Validate:   HexColorValidator(),
				},
				{
					Key:        "primaryColor",
					Default:    "#e94560",
					FacadeName: "color1",
					Validate:   HexColorValidator(),
				},
				{
					Key:        "secondaryColor",
					Default:    "#0f3460",
					FacadeName: "color2",
					Validate:   HexColorValidator(),
				},
				{
					Key:        "saturation",
					Default:    1.0,
					FacadeName: "saturation",
					Validate:   RangeValidator(0, 2),
					Min:        0, Max: 2, Step: 0.01,
				},
				{
					Key:        "hueShift",
					Default:    0.0,
					FacadeName: "hueShift",
					Validate:   RangeValidator(-180, 180),
					Min:        -180, Max: 180, Step: 1,
				},
				{
					Key:        "transparentBackground",
					Default:    false,
					FacadeName: "transparentBg",
					Validate:   BoolValidator(),
				},
			},
		},
		{
			Name: DomainLighting,
			Definitions: []Definition{
				{
					Key:        "intensity",
					Default:    1.0,
					FacadeName: "lightIntensity",
					Validate:   RangeValidator(0, 2),
					Min:        0, Max: 2, Step: 0.01,
				},
				{
					Key:        "ambient",
					Default:    0.25,
					FacadeName: "ambientLight",
					Validate:   RangeValidator(0, 1),
					Min:        0, Max: 1, Step: 0.01,
				},
				{
					Key:        "specularity",
					Default:    0.5,
					FacadeName: "specularity",
					Validate:   RangeValidator(0, 1),
					Min:        0, Max: 1, Step: 0.01,
				},
				{
					Key:        "lightDirection",
					Default:    Vec3{X: 0.5, Y: 1, Z: 0.25},
					FacadeName: "lightDir",
				},
			},
		},
		{
			Name: DomainCamera,
			Definitions: []Definition{
				{
					Key:        "fov",
					Default:    45.0,
					FacadeName: "cameraFov",
					Validate:   RangeValidator(20, 120),
					Min:        20, Max: 120, Step: 1,
				},
				{
					Key:        "distance",
					Default:    3.0,
					FacadeName: "cameraDistance",
					Validate:   RangeValidator(0.5, 10),
					Min:        0.5, Max: 10, Step: 0.1,
				},
				{
					Key:        "orbitX",
					Default:    0.0,
					FacadeName: "cameraOrbitX",
					Validate:   RangeValidator(-180, 180),
					Min:        -180, Max: 180, Step: 0.5,
				},
				{
					Key:        "orbitY",
					Default:    15.0,
					FacadeName: "cameraOrbitY",
					Validate:   RangeValidator(-89, 89),
					Min:        -89, Max: 89, Step: 0.5,
				},
				{
					Key:         "projection",
					Default:     "perspective",
					FacadeName:  "cameraProjection",
					Validate:    OneOfValidator("perspective", "orthographic"),
					ResetCamera: true,
				},
			},
		},
		{
			Name: DomainDistortion,
			Definitions: []Definition{
				{
					Key:        "strength",
					Default:    0.2,
					FacadeName: "distortStrength",
					Validate:   RangeValidator(-1, 1),
					Min:        -1, Max: 1, Step: 0.01,
					Debounce:   rebuildDebounce,
				},
				{
					Key:        "frequency",
					Default:    2.0,
					FacadeName: "distortFrequency",
					Validate:   RangeValidator(0, 10),
					Min:        0, Max: 10, Step: 0.1,
					Debounce:   rebuildDebounce,
				},
				{
					Key:        "octaves",
					Default:    3.0,
					FacadeName: "distortOctaves",
					Validate:   RangeValidator(1, 8),
					Min:        1, Max: 8, Step: 1,
					Debounce:   rebuildDebounce,
				},
				{
					Key:        "speed",
					Default:    0.5,
					FacadeName: "distortSpeed",
					Validate:   RangeValidator(0, 4),
					Min:        0, Max: 4, Step: 0.01,
				},
			},
		},
		{
			// Export settings never touch the engine; they configure the
			// capture step in the host application.
			Name: DomainExport,
			Definitions: []Definition{
				{
					Key:      "resolution",
					Default:  "2x",
					Validate: OneOfValidator("1x", "2x", "4x"),
				},
				{
					Key:      "format",
					Default:  "png",
					Validate: OneOfValidator("png", "webp"),
				},
				{
					Key:      "transparentBackground",
					Default:  false,
					Validate: BoolValidator(),
				},
			},
		},
	}
}
