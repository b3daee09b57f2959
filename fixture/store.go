package fixture

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CompressedSuffix marks fixture files stored zstd compressed.
const CompressedSuffix = ".zst"

// DefaultDirCreationPerm is used when creating the directory of a fixture file.
var DefaultDirCreationPerm = os.FileMode(0o755)

// IsCompressed returns whether the fixture at filePath is (or will be) zstd compressed.
func IsCompressed(filePath string) bool {
	return strings.HasSuffix(filePath, CompressedSuffix)
}

// Load reads a fixture from filePath, decompressing it if it has the ".zst" suffix.
func Load(filePath string) (*Fixture, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read fixture %q", filePath)
	}
	if IsCompressed(filePath) {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "creating zstd decoder")
		}
		defer decoder.Close()
		content, err = decoder.DecodeAll(content, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decompress fixture %q", filePath)
		}
	}
	var f Fixture
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse fixture %q", filePath)
	}
	if err := f.Layout.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "fixture %q", filePath)
	}
	return &f, nil
}

// Encode writes the fixture as indented JSON to w, zstd compressed if compress is true.
func Encode(w io.Writer, f *Fixture, compress bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return errors.Wrapf(err, "failed to encode fixture")
	}
	if !compress {
		_, err := w.Write(buf.Bytes())
		return errors.Wrapf(err, "failed to write fixture")
	}
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return errors.Wrapf(err, "creating zstd encoder")
	}
	if _, err := encoder.Write(buf.Bytes()); err != nil {
		_ = encoder.Close()
		return errors.Wrapf(err, "failed to compress fixture")
	}
	return errors.Wrapf(encoder.Close(), "failed to flush compressed fixture")
}

// Save writes the fixture to filePath, zstd compressed if it has the ".zst" suffix.
//
// It writes to a temporary file next to filePath and then atomically moves it to filePath, so readers
// never see a partial fixture. A filePath+".lock" file, left in place, coordinates multiple processes
// regenerating the same fixture at the same time: the last one to get the lock wins.
func Save(filePath string, f *Fixture) error {
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for fixture %q", filePath)
	}

	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		tmpFile, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".writing-*")
		if err != nil {
			mainErr = errors.Wrapf(err, "creating temporary file for %q", filePath)
			return
		}
		tmpPath := tmpFile.Name()
		var tmpFileClosed bool
		defer func() {
			// On error, close and remove the unfinished temporary file.
			if !tmpFileClosed {
				if err := tmpFile.Close(); err != nil {
					klog.Warningf("failed closing temporary file %q: %v", tmpPath, err)
				}
				if err := os.Remove(tmpPath); err != nil {
					klog.Warningf("failed removing temporary file %q: %v", tmpPath, err)
				}
			}
		}()

		if mainErr = Encode(tmpFile, f, IsCompressed(filePath)); mainErr != nil {
			mainErr = errors.WithMessagef(mainErr, "while writing %q", tmpPath)
			return
		}
		tmpFileClosed = true
		if err := tmpFile.Close(); err != nil {
			mainErr = errors.Wrapf(err, "failed to close temporary file %q", tmpPath)
			_ = os.Remove(tmpPath)
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move %q to %q", tmpPath, filePath)
			_ = os.Remove(tmpPath)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to save fixture", lockPath)
	}
	klog.V(1).Infof("saved fixture %q (%d tokens, %d sentences)", filePath, f.NumOfTokens, len(f.Sentences))
	return nil
}

// lockPollPeriod is the minimum wait between attempts to get a busy lock; a random jitter of the
// same length is added.
var lockPollPeriod = 100 * time.Millisecond

// execOnFileLock creates (if needed) and locks lockPath, and executes fn while holding the lock.
// If lockPath is already locked, it polls until it acquires it.
//
// The lockPath is not removed: another process may be waiting on it.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(lockPollPeriod + time.Duration(rand.Int63n(int64(lockPollPeriod))))
	}

	// Unlock even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	fn()
	return
}
