package domain

import (
	"fmt"
	"strings"
)

// GardenStyle はガーデンのスタイルを表す定数です
type GardenStyle int

const (
	GardenStyleModernMinimalist GardenStyle = iota
	GardenStyleEnglishCottage
	GardenStyleJapaneseZen
	GardenStyleMediterranean
	GardenStyleTropicalParadise
	GardenStyleWildlifeFriendly
)

// SunlightLevel は日当たりを表す定数です
type SunlightLevel int

const (
	SunlightFullSun SunlightLevel = iota
	SunlightPartialShade
	SunlightFullShade
)

// optionData は選択肢のキーと表示名を保持します
type optionData struct {
	Key         string
	DisplayName string
}

var gardenStyles = []optionData{
	{"modern", "Modern Minimalist"},
	{"english", "English Cottage"},
	{"japanese", "Japanese Zen"},
	{"mediterranean", "Mediterranean"},
	{"tropical", "Tropical Paradise"},
	{"wildlife", "Wildlife-Friendly"},
}

var sunlightLevels = []optionData{
	{"full_sun", "Full Sun"},
	{"partial_shade", "Partial Shade"},
	{"full_shade", "Full Shade"},
}

var gardenSizes = []optionData{
	{"small", "Small Courtyard (10-20m²)"},
	{"medium", "Medium Backyard (20-100m²)"},
	{"large", "Large Estate (100m²+)"},
	{"balcony", "Balcony / Terrace"},
}

// availableFeatures は、フォームで選択できる代表的な設備です
var availableFeatures = []string{
	"Water Fountain",
	"Fire Pit",
	"Vegetable Patch",
	"Wooden Deck",
	"Stone Path",
	"Pergola",
	"Ambient Lighting",
}

// editSuggestions は、編集指示のクイック候補です
var editSuggestions = []string{
	"Retro Filter",
	"Remove Distractions",
	"More Sunset Lighting",
	"Add Pergola",
	"Native Plants Only",
}

// String はGardenStyleの表示名を返します
func (s GardenStyle) String() string {
	if s.IsValid() {
		return gardenStyles[s].DisplayName
	}
	return fmt.Sprintf("GardenStyle(%d)", int(s))
}

// Key はGardenStyleの識別キーを返します
func (s GardenStyle) Key() string {
	if s.IsValid() {
		return gardenStyles[s].Key
	}
	return ""
}

// IsValid は定義済みのスタイルかどうかを返します
func (s GardenStyle) IsValid() bool {
	return int(s) >= 0 && int(s) < len(gardenStyles)
}

// String はSunlightLevelの表示名を返します
func (l SunlightLevel) String() string {
	if l.IsValid() {
		return sunlightLevels[l].DisplayName
	}
	return fmt.Sprintf("SunlightLevel(%d)", int(l))
}

// Key はSunlightLevelの識別キーを返します
func (l SunlightLevel) Key() string {
	if l.IsValid() {
		return sunlightLevels[l].Key
	}
	return ""
}

// IsValid は定義済みの日当たりかどうかを返します
func (l SunlightLevel) IsValid() bool {
	return int(l) >= 0 && int(l) < len(sunlightLevels)
}

// lookupOption は、キーまたは表示名（大文字小文字を区別しない）から添字を探します
func lookupOption(options []optionData, value string) (int, bool) {
	value = strings.TrimSpace(value)
	for i, option := range options {
		if strings.EqualFold(option.Key, value) || strings.EqualFold(option.DisplayName, value) {
			return i, true
		}
	}
	return 0, false
}

// ParseGardenStyle は、キーまたは表示名からGardenStyleを返します
func ParseGardenStyle(value string) (GardenStyle, error) {
	i, ok := lookupOption(gardenStyles, value)
	if !ok {
		return 0, fmt.Errorf("%w: 不明なスタイル %q", ErrInvalidPreferences, value)
	}
	return GardenStyle(i), nil
}

// ParseSunlightLevel は、キーまたは表示名からSunlightLevelを返します
func ParseSunlightLevel(value string) (SunlightLevel, error) {
	i, ok := lookupOption(sunlightLevels, value)
	if !ok {
		return 0, fmt.Errorf("%w: 不明な日当たり %q", ErrInvalidPreferences, value)
	}
	return SunlightLevel(i), nil
}

// ResolveGardenSize は、広さのキーを表示用ラベルに解決します
// 既知のキーでない場合は入力をそのままラベルとして扱います
func ResolveGardenSize(value string) string {
	if i, ok := lookupOption(gardenSizes, value); ok {
		return gardenSizes[i].DisplayName
	}
	return strings.TrimSpace(value)
}

// AllGardenStyles はすべてのGardenStyleを返します
func AllGardenStyles() []GardenStyle {
	styles := make([]GardenStyle, len(gardenStyles))
	for i := range gardenStyles {
		styles[i] = GardenStyle(i)
	}
	return styles
}

// AllSunlightLevels はすべてのSunlightLevelを返します
func AllSunlightLevels() []SunlightLevel {
	levels := make([]SunlightLevel, len(sunlightLevels))
	for i := range sunlightLevels {
		levels[i] = SunlightLevel(i)
	}
	return levels
}

// GardenSizeOption は、広さの選択肢を表します
type GardenSizeOption struct {
	Key   string
	Label string
}

// AllGardenSizes はすべての広さの選択肢を返します
func AllGardenSizes() []GardenSizeOption {
	sizes := make([]GardenSizeOption, len(gardenSizes))
	for i, size := range gardenSizes {
		sizes[i] = GardenSizeOption{Key: size.Key, Label: size.DisplayName}
	}
	return sizes
}

// AvailableFeatures は選択可能な設備の一覧を返します
func AvailableFeatures() []string {
	return append([]string(nil), availableFeatures...)
}

// EditSuggestions は編集指示の候補一覧を返します
func EditSuggestions() []string {
	return append([]string(nil), editSuggestions...)
}

// GardenPreferences は、ユーザーが希望するガーデンの条件を表す値オブジェクトです
type GardenPreferences struct {
	Style             GardenStyle
	Size              string
	Sunlight          SunlightLevel
	Features          []string
	CustomDescription string
}

// DefaultGardenPreferences は、セッション開始時のデフォルト条件を返します
func DefaultGardenPreferences() GardenPreferences {
	return GardenPreferences{
		Style:    GardenStyleModernMinimalist,
		Size:     gardenSizes[0].DisplayName,
		Sunlight: SunlightFullSun,
		Features: []string{},
	}
}

// HasFeature は、指定された設備が選択済みかどうかを返します
func (p GardenPreferences) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// ToggleFeature は、設備の選択状態を切り替えます
// 未選択なら末尾に追加し、選択済みなら取り除きます。順序は維持されます
func (p *GardenPreferences) ToggleFeature(feature string) {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return
	}

	if !p.HasFeature(feature) {
		p.Features = append(p.Features, feature)
		return
	}

	kept := make([]string, 0, len(p.Features)-1)
	for _, f := range p.Features {
		if f != feature {
			kept = append(kept, f)
		}
	}
	p.Features = kept
}

// Validate は、条件が生成に使える状態かを検証します
func (p GardenPreferences) Validate() error {
	if !p.Style.IsValid() {
		return fmt.Errorf("%w: スタイルが範囲外です (%d)", ErrInvalidPreferences, int(p.Style))
	}
	if strings.TrimSpace(p.Size) == "" {
		return fmt.Errorf("%w: 広さが指定されていません", ErrInvalidPreferences)
	}
	if !p.Sunlight.IsValid() {
		return fmt.Errorf("%w: 日当たりが範囲外です (%d)", ErrInvalidPreferences, int(p.Sunlight))
	}
	seen := make(map[string]struct{}, len(p.Features))
	for _, f := range p.Features {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: 空の設備名が含まれています", ErrInvalidPreferences)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: 設備 %q が重複しています", ErrInvalidPreferences, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// ParseFeatureList は、カンマ区切りの設備一覧を取り込みます
// 出現順を保ち、2回目以降の同じ設備は無視します
func ParseFeatureList(raw string) []string {
	features := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		duplicate := false
		for _, f := range features {
			if f == part {
				duplicate = true
				break
			}
		}
		if !duplicate {
			features = append(features, part)
		}
	}
	return features
}
