// Package category defines the tagged variant of directory classifications
// devsync dispatches on, per the registry's recognition order.
package category

// Category is the classification a directory is assigned once by the
// registry. It carries no behavior itself — the handler package maps each
// Category to a concrete strategy.
type Category int

const (
	Plain Category = iota
	SpecialYocto
	SpecialSysroot
	BuildCargo
	BuildCMake
	BuildFlutter
	BuildMeson
	BuildNinja
	RepoSvn
	RepoGit
)

func (c Category) String() string {
	switch c {
	case Plain:
		return "plain"
	case SpecialYocto:
		return "yocto"
	case SpecialSysroot:
		return "sysroot"
	case BuildCargo:
		return "cargo"
	case BuildCMake:
		return "cmake"
	case BuildFlutter:
		return "flutter"
	case BuildMeson:
		return "meson"
	case BuildNinja:
		return "ninja"
	case RepoSvn:
		return "svn"
	case RepoGit:
		return "git"
	default:
		return "unknown"
	}
}

// IsBuild reports whether c is one of the build-tree categories (§4.D),
// which all share the same toggle-gated plain-or-skip strategy.
func (c Category) IsBuild() bool {
	switch c {
	case BuildCargo, BuildCMake, BuildFlutter, BuildMeson, BuildNinja:
		return true
	default:
		return false
	}
}

// IsSpecial reports whether c is Yocto or Sysroot.
func (c Category) IsSpecial() bool {
	return c == SpecialYocto || c == SpecialSysroot
}
