package data

import (
	"fmt"
	"path"
	"strings"
)

// Layout names the project folders. All entries are relative slash paths
// without a trailing separator.
type Layout struct {
	Assets   string `toml:"assets" yaml:"assets" validate:"required"`
	Textures string `toml:"textures" yaml:"textures" validate:"required"`
	Models   string `toml:"models" yaml:"models" validate:"required"`
	Scenes   string `toml:"scenes" yaml:"scenes" validate:"required"`
	Prefabs  string `toml:"prefabs" yaml:"prefabs" validate:"required"`
	Scripts  string `toml:"scripts" yaml:"scripts" validate:"required"`

	Library         string `toml:"library" yaml:"library" validate:"required"`
	LibraryTextures string `toml:"library_textures" yaml:"library_textures" validate:"required"`
	LibraryModels   string `toml:"library_models" yaml:"library_models" validate:"required"`
	LibraryMeshes   string `toml:"library_meshes" yaml:"library_meshes" validate:"required"`
	LibraryScenes   string `toml:"library_scenes" yaml:"library_scenes" validate:"required"`
	LibraryPrefabs  string `toml:"library_prefabs" yaml:"library_prefabs" validate:"required"`
	LibraryScripts  string `toml:"library_scripts" yaml:"library_scripts" validate:"required"`

	// ScriptHeaders holds the C++ headers that declare script classes.
	ScriptHeaders string `toml:"script_headers" yaml:"script_headers" validate:"required"`
	// MetaSuffix is appended to an asset path to form its sidecar path.
	MetaSuffix string `toml:"meta_suffix" yaml:"meta_suffix" validate:"required,startswith=."`
}

func DefaultLayout() Layout {
	return Layout{
		Assets:   "Assets",
		Textures: "Assets/Textures",
		Models:   "Assets/Models",
		Scenes:   "Assets/Scenes",
		Prefabs:  "Assets/Prefabs",
		Scripts:  "Assets/Scripts",

		Library:         "Library",
		LibraryTextures: "Library/Textures",
		LibraryModels:   "Library/Models",
		LibraryMeshes:   "Library/Meshes",
		LibraryScenes:   "Library/Scenes",
		LibraryPrefabs:  "Library/Prefabs",
		LibraryScripts:  "Library/Scripts",

		ScriptHeaders: "EngineScripts",
		MetaSuffix:    ".meta",
	}
}

// File extensions recognised for each kind.
var (
	TextureExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".dds", ".tga"}
	ModelExtensions   = []string{".obj", ".fbx", ".gltf", ".glb", ".dae", ".3ds", ".blend"}
	SceneExtensions   = []string{".alienscene"}
	PrefabExtensions  = []string{".alienprefab"}
	ScriptExtensions  = []string{".alienscript"}
	HeaderExtensions  = []string{".h", ".hpp"}
)

// KindFromExtension classifies a dropped or discovered file by extension.
func KindFromExtension(p string) Kind {
	ext := Ext(p)
	switch {
	case contains(TextureExtensions, ext):
		return KindTexture
	case contains(ModelExtensions, ext):
		return KindModel
	case contains(SceneExtensions, ext):
		return KindScene
	case contains(PrefabExtensions, ext):
		return KindPrefab
	case contains(ScriptExtensions, ext):
		return KindScript
	}
	return KindUnknown
}

func IsHeader(p string) bool {
	return contains(HeaderExtensions, Ext(p))
}

func contains(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}

// AssetFolder returns the folder assets of kind are dropped into.
func (l Layout) AssetFolder(kind Kind) string {
	switch kind {
	case KindTexture:
		return l.Textures
	case KindModel:
		return l.Models
	case KindScene:
		return l.Scenes
	case KindPrefab:
		return l.Prefabs
	case KindScript:
		return l.Scripts
	}
	return l.Assets
}

func (l Layout) LibraryFolder(kind Kind) string {
	switch kind {
	case KindMesh:
		return l.LibraryMeshes
	case KindTexture:
		return l.LibraryTextures
	case KindModel:
		return l.LibraryModels
	case KindScene:
		return l.LibraryScenes
	case KindPrefab:
		return l.LibraryPrefabs
	case KindScript:
		return l.LibraryScripts
	}
	return l.Library
}

// LibraryExtension returns the artifact extension for kind.
func LibraryExtension(kind Kind) string {
	name := kind.String()
	return ".alien" + strings.ToUpper(name[:1]) + name[1:]
}

// LibraryPath returns the compiled artifact location for a resource.
func (l Layout) LibraryPath(kind Kind, id uint64) string {
	return path.Join(l.LibraryFolder(kind), fmt.Sprintf("%d%s", id, LibraryExtension(kind)))
}

// MetaPath returns the sidecar path for an asset.
func (l Layout) MetaPath(assetPath string) string {
	return assetPath + l.MetaSuffix
}

// IsMeta reports whether p is a sidecar rather than an asset.
func (l Layout) IsMeta(p string) bool {
	suffix := l.MetaSuffix
	return len(p) > len(suffix) && StringCmp(p[len(p)-len(suffix):], suffix)
}

// AssetRoots returns the folders reconciled on startup, in order.
func (l Layout) AssetRoots() []string {
	return []string{l.Textures, l.Models, l.Prefabs, l.Scenes}
}
