package registry

import (
	"github.com/henneberg-systemdesign/devsync/internal/category"
	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/gitrepo"
	"github.com/henneberg-systemdesign/devsync/internal/handler"
	"github.com/henneberg-systemdesign/devsync/internal/job"
)

// NewHandler maps a recognized Category to the concrete strategy that
// implements it (§4.C-§4.E), reading the toggles that decide whether a
// build-tree category copies or skips.
func NewHandler(cat category.Category, opts *config.SyncOptions) job.Handler {
	plain := handler.Plain{}
	switch cat {
	case category.Plain:
		return plain
	case category.SpecialYocto:
		return handler.Yocto{}
	case category.SpecialSysroot:
		return handler.Sysroot{}
	case category.BuildCargo:
		return handler.Build{Enabled: opts.CargoSync, Plain: plain}
	case category.BuildCMake:
		return handler.Build{Enabled: opts.CMakeSync, Plain: plain}
	case category.BuildFlutter:
		return handler.Build{Enabled: opts.FlutterSync, Plain: plain}
	case category.BuildMeson:
		return handler.Build{Enabled: opts.MesonSync, Plain: plain}
	case category.BuildNinja:
		return handler.Build{Enabled: opts.NinjaSync, Plain: plain}
	case category.RepoSvn:
		return handler.Svn{}
	case category.RepoGit:
		return gitrepo.New()
	default:
		return plain
	}
}
