package material

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/specular"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// Translator converts glTF materials, creating textures through a cache.
type Translator struct {
	cache  *texture.Cache
	policy ColorPolicy
}

// NewTranslator creates a translator drawing textures from cache.
func NewTranslator(cache *texture.Cache, policy ColorPolicy) *Translator {
	return &Translator{cache: cache, policy: policy}
}

// Translate converts material index of src.Doc. An out-of-range index is
// an ErrReference; texture problems only leave the affected slot nil.
func (t *Translator) Translate(src texture.Source, index int) (*Material, error) {
	if index < 0 || index >= len(src.Doc.Materials) {
		return nil, fmt.Errorf("%w: material %d of %d", formats.ErrReference, index, len(src.Doc.Materials))
	}
	gm := src.Doc.Materials[index]
	if gm == nil {
		return nil, fmt.Errorf("%w: material %d is null", formats.ErrParse, index)
	}

	m := &Material{
		Name:        gm.Name,
		Index:       index,
		Properties:  defaultProperties(t.policy),
		AlphaMode:   alphaMode(gm.AlphaMode),
		DoubleSided: gm.DoubleSided,
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("Material : %d", index)
	}
	if gm.AlphaCutoff != nil {
		m.Properties.AlphaCutoff = float32(*gm.AlphaCutoff)
	}
	m.Properties.EmissiveColor = mgl32.Vec3{
		float32(gm.EmissiveFactor[0]),
		float32(gm.EmissiveFactor[1]),
		float32(gm.EmissiveFactor[2]),
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			m.Properties.AlbedoColor = vec4(f[:])
		}
		if pbr.MetallicFactor != nil {
			m.Properties.Metallic = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			m.Properties.Roughness = float32(*pbr.RoughnessFactor)
		}
		s := m.Properties.Metallic
		m.Properties.SpecularColor = mgl32.Vec4{s, s, s, s}

		if ti := pbr.BaseColorTexture; ti != nil {
			t.bind(src, m, ti.Index, SlotAlbedo)
		}
		if ti := pbr.MetallicRoughnessTexture; ti != nil {
			t.bind(src, m, ti.Index, SlotMetallic, SlotRoughness)
		}
	}
	if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
		t.bind(src, m, *nt.Index, SlotNormal)
	}
	if ot := gm.OcclusionTexture; ot != nil && ot.Index != nil {
		t.bind(src, m, *ot.Index, SlotAO)
	}

	if raw, ok := gm.Extensions[specular.ExtensionName]; ok {
		sg, err := specularGlossiness(raw)
		if err != nil {
			logger.Warn("ignoring malformed specular-glossiness block",
				zap.String("source", src.Name),
				zap.Int("material", index),
				zap.Error(err))
		} else {
			t.applySpecularGlossiness(src, m, sg)
		}
	}

	return m, nil
}

// applySpecularGlossiness overrides the metallic-roughness derived values.
func (t *Translator) applySpecularGlossiness(src texture.Source, m *Material, sg *specGloss) {
	m.SpecularGlossiness = true

	diffuse := mgl32.Vec4{1, 1, 1, 1}
	for i := 0; i < len(sg.DiffuseFactor) && i < 4; i++ {
		diffuse[i] = float32(sg.DiffuseFactor[i])
	}
	m.Properties.AlbedoColor = diffuse

	spec := mgl32.Vec4{1, 1, 1, 1}
	for i := 0; i < len(sg.SpecularFactor) && i < 3; i++ {
		spec[i] = float32(sg.SpecularFactor[i])
	}
	m.Properties.SpecularColor = spec

	gloss := float32(1)
	if sg.GlossinessFactor != nil {
		gloss = float32(*sg.GlossinessFactor)
	}
	m.Properties.Roughness = 1 - gloss

	if sg.DiffuseTexture != nil {
		t.unbind(m, SlotAlbedo)
		t.bind(src, m, sg.DiffuseTexture.Index, SlotAlbedo)
	}
	if sg.SpecularGlossinessTexture != nil {
		t.unbind(m, SlotRoughness)
		t.bind(src, m, sg.SpecularGlossinessTexture.Index, SlotRoughness)
	}
}

// bind fetches texture index and stores it in every given slot, each
// slot holding its own reference. Failures leave the slots nil.
func (t *Translator) bind(src texture.Source, m *Material, index int, slots ...Slot) {
	tex, err := t.cache.Texture(src, index)
	if err != nil {
		logger.Warn("texture slot left unset",
			zap.String("source", src.Name),
			zap.Int("material", m.Index),
			zap.Stringer("slot", slots[0]),
			zap.Int("texture", index),
			zap.Error(err))
		return
	}
	for i, s := range slots {
		if i > 0 {
			tex.Retain()
		}
		t.unbind(m, s)
		m.Textures[s] = tex
	}
}

func (t *Translator) unbind(m *Material, s Slot) {
	if old := m.Textures[s]; old != nil {
		old.Release()
		m.Textures[s] = nil
	}
}

// specGloss is the KHR_materials_pbrSpecularGlossiness block with factors
// kept as slices so partially specified factors can be told apart.
type specGloss struct {
	DiffuseFactor             []float64         `json:"diffuseFactor,omitempty"`
	DiffuseTexture            *gltf.TextureInfo `json:"diffuseTexture,omitempty"`
	SpecularFactor            []float64         `json:"specularFactor,omitempty"`
	GlossinessFactor          *float64          `json:"glossinessFactor,omitempty"`
	SpecularGlossinessTexture *gltf.TextureInfo `json:"specularGlossinessTexture,omitempty"`
}

// specularGlossiness normalizes the extension value. The decoder yields the
// typed extension when it is registered, otherwise raw JSON.
func specularGlossiness(v any) (*specGloss, error) {
	switch ext := v.(type) {
	case *specular.PBRSpecularGlossiness:
		if ext == nil {
			return &specGloss{}, nil
		}
		return fromTyped(ext), nil
	case specular.PBRSpecularGlossiness:
		return fromTyped(&ext), nil
	case json.RawMessage:
		return decodeSpecGloss(ext)
	case []byte:
		return decodeSpecGloss(ext)
	case nil:
		return &specGloss{}, nil
	default:
		data, err := json.Marshal(ext)
		if err != nil {
			return nil, err
		}
		return decodeSpecGloss(data)
	}
}

func decodeSpecGloss(data []byte) (*specGloss, error) {
	sg := new(specGloss)
	if err := json.Unmarshal(data, sg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", formats.ErrParse, specular.ExtensionName, err)
	}
	return sg, nil
}

func fromTyped(ext *specular.PBRSpecularGlossiness) *specGloss {
	sg := &specGloss{
		DiffuseTexture:            ext.DiffuseTexture,
		GlossinessFactor:          ext.GlossinessFactor,
		SpecularGlossinessTexture: ext.SpecularGlossinessTexture,
	}
	if ext.DiffuseFactor != nil {
		sg.DiffuseFactor = ext.DiffuseFactor[:]
	}
	if ext.SpecularFactor != nil {
		sg.SpecularFactor = ext.SpecularFactor[:]
	}
	return sg
}

func alphaMode(m gltf.AlphaMode) AlphaMode {
	switch m {
	case gltf.AlphaMask:
		return AlphaMask
	case gltf.AlphaBlend:
		return AlphaBlend
	default:
		return AlphaOpaque
	}
}

func vec4(f []float64) mgl32.Vec4 {
	var v mgl32.Vec4
	for i := 0; i < len(f) && i < 4; i++ {
		v[i] = float32(f[i])
	}
	return v
}
