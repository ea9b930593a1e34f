package theme

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.trai.ch/zerr"
)

// A pinned clone of the upstream theme repository.
//
// Sync materializes the repository under Dir and checks out Ref. The
// resolved commit hash doubles as the image tag for published builds, so
// the same theme state always maps to the same tag.
type Snapshot struct {
	URL   string // Clone URL of the theme repository.
	Ref   string // Branch, tag, or commit to pin. Empty means the default branch.
	Dir   string // Local checkout directory.
	Token string // Optional bearer token for private theme repositories.
}

// Clones or updates the snapshot and returns the resolved commit hash.
//
// An existing checkout is fetched and force-checked-out rather than
// re-cloned. The ref may be a branch, a tag, or a full commit hash.
func (s *Snapshot) Sync(ctx context.Context) (string, error) {
	repo, err := s.openOrClone(ctx)
	if err != nil {
		return "", zerr.Wrap(ErrSnapshot, err.Error())
	}

	hash, err := s.checkout(ctx, repo)
	if err != nil {
		return "", zerr.Wrap(ErrSnapshot, err.Error())
	}

	slog.Info("theme snapshot ready", "url", s.URL, "ref", s.Ref, "commit", hash[:12], "dir", s.Dir)
	return hash, nil
}

// Opens the existing checkout and fetches, or clones from scratch.
func (s *Snapshot) openOrClone(ctx context.Context) (*git.Repository, error) {
	repo, err := git.PlainOpen(s.Dir)
	if err == nil {
		fetchErr := repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: "origin",
			Tags:       git.AllTags,
			Force:      true,
			Auth:       s.auth(),
		})
		if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
			return nil, fetchErr
		}
		return repo, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.Dir), 0755); err != nil {
		return nil, err
	}

	slog.Debug("cloning theme repository", "url", s.URL, "dir", s.Dir)

	return git.PlainCloneContext(ctx, s.Dir, false, &git.CloneOptions{
		URL:  s.URL,
		Auth: s.auth(),
	})
}

// Resolves the pinned ref to a commit and checks out the working tree.
//
// An empty ref pulls the default branch so a re-sync follows upstream.
// Otherwise the ref is resolved as a revision and checked out detached;
// branch names resolve through the remote-tracking ref first so a fetched
// update wins over the stale local branch head.
func (s *Snapshot) checkout(ctx context.Context, repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}

	if s.Ref == "" {
		err := wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Force: true, Auth: s.auth()})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return "", err
		}
		head, err := repo.Head()
		if err != nil {
			return "", err
		}
		return head.Hash().String(), nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision("refs/remotes/origin/" + s.Ref))
	if err != nil {
		hash, err = repo.ResolveRevision(plumbing.Revision(s.Ref))
	}
	if err != nil {
		return "", err
	}

	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return "", err
	}

	return hash.String(), nil
}

// Returns the transport auth for private repositories, or nil.
func (s *Snapshot) auth() transport.AuthMethod {
	if s.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "token", Password: s.Token}
}
