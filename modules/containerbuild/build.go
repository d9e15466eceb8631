package containerbuild

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/tarball"

	"github.com/vk/gardenflow/internal/plugin"
)

const contextLayerMediaType = "application/vnd.gardenflow.build-context.v1.tar+gzip"

// build packages spec.Context into a single-layer image and pushes it to
// spec.Reference, returning the pushed digest as the action's output.
func build(ctx context.Context, req *plugin.Request) (any, error) {
	s, err := specOf(req.Action)
	if err != nil {
		return nil, err
	}
	req.Log.Info("containerbuild: packaging build context.", "context", s.Context, "reference", s.Reference)

	layerFile, err := tarContext(s.Context)
	if err != nil {
		return nil, fmt.Errorf("containerbuild: packaging context: %w", err)
	}
	defer os.Remove(layerFile)

	layer, err := tarball.LayerFromFile(layerFile, tarball.WithMediaType(contextLayerMediaType))
	if err != nil {
		return nil, fmt.Errorf("containerbuild: building layer: %w", err)
	}

	img, err := mutate.AppendLayers(empty.Image, layer)
	if err != nil {
		return nil, fmt.Errorf("containerbuild: appending layer: %w", err)
	}

	ref, err := name.ParseReference(s.Reference, parseOpts(s)...)
	if err != nil {
		return nil, fmt.Errorf("containerbuild: parsing reference %q: %w", s.Reference, err)
	}

	if err := remote.Write(ref, img, remote.WithContext(ctx), remote.WithAuthFromKeychain(authn.DefaultKeychain)); err != nil {
		return nil, fmt.Errorf("containerbuild: pushing %s: %w", s.Reference, err)
	}

	digest, err := img.Digest()
	if err != nil {
		return nil, fmt.Errorf("containerbuild: reading digest: %w", err)
	}
	req.Log.Info("containerbuild: pushed.", "reference", s.Reference, "digest", digest.String())

	return map[string]any{
		"reference": s.Reference,
		"digest":    digest.String(),
	}, nil
}

// publish does not push again: for this plugin build already pushes, so
// publish is a thin confirmation step that re-resolves the remote digest
// without rebuilding the layer.
func publish(ctx context.Context, req *plugin.Request) (any, error) {
	s, err := specOf(req.Action)
	if err != nil {
		return nil, err
	}
	digest, err := remoteDigest(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("containerbuild: publish: %w", err)
	}
	return map[string]any{"reference": s.Reference, "digest": digest}, nil
}

func parseOpts(s spec) []name.Option {
	if s.Insecure {
		return []name.Option{name.Insecure}
	}
	return nil
}

func remoteDigest(ctx context.Context, s spec) (string, error) {
	ref, err := name.ParseReference(s.Reference, parseOpts(s)...)
	if err != nil {
		return "", err
	}
	desc, err := remote.Head(ref, remote.WithContext(ctx), remote.WithAuthFromKeychain(authn.DefaultKeychain))
	if err != nil {
		return "", err
	}
	return desc.Digest.String(), nil
}

// tarContext archives dir into a gzip'd tarball on disk, the shape
// tarball.LayerFromFile expects.
func tarContext(dir string) (string, error) {
	f, err := os.CreateTemp("", "gardenflow-build-context-*.tar.gz")
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return "", err
	}
	return f.Name(), nil
}
