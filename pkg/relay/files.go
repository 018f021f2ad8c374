package relay

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNoDownloadableContent is returned when a message type carries no
// resolvable media URL. There is no separate permanent-failure path;
// callers count it against the same retry cap as transport errors.
var ErrNoDownloadableContent = errors.New("no suitable files to download")

// FileDescriptor is a resolved download target: where to fetch the
// content, whether the fetch needs the channel bearer token, and the
// filename it will be stored under. OrigFilename carries the sender's
// file name for file-type messages and is empty otherwise.
type FileDescriptor struct {
	Provider     ProviderType
	URL          string
	Filename     string
	OrigFilename string
}

// Authed reports whether fetching this descriptor requires the channel
// bearer token. External provider URLs are pre-signed.
func (d FileDescriptor) Authed() bool {
	return d.Provider == ProviderLine
}

const (
	fileBaseLimit = 10
	fileStemLimit = 100
)

// truncatedFileName builds the stored name for a file-type message:
// the deterministic prefix plus the first 10 characters of the original
// basename (extension stripped), the whole stem clamped to 100
// characters, with the original extension reattached.
func truncatedFileName(prefix, original string) string {
	ext := path.Ext(original)
	base := strings.TrimSuffix(path.Base(original), ext)
	if r := []rune(base); len(r) > fileBaseLimit {
		base = string(r[:fileBaseLimit])
	}
	stem := prefix + base
	if r := []rune(stem); len(r) > fileStemLimit {
		stem = string(r[:fileStemLimit])
	}
	return stem + ext
}

// ResolveFiles derives the download targets for a media message.
// contentBase is the platform data API base URL (no trailing slash).
//
// Audio and file messages yield exactly one URL. Image and video
// messages yield the main content URL plus a "-preview" variant when
// the content is platform hosted or the sender supplied an external
// preview URL. Non-media messages yield ErrNoDownloadableContent.
func ResolveFiles(env Envelope, contentBase string) ([]FileDescriptor, error) {
	msg := env.Event.Message
	provider := msg.ContentProvider
	fileID := fmt.Sprintf("%s_%s", env.Destination, msg.ID)

	contentURL := func() string {
		if provider.Type == ProviderLine {
			return fmt.Sprintf("%s/v2/bot/message/%s/content", contentBase, msg.ID)
		}
		return provider.OriginalContentURL
	}

	switch msg.Type {
	case MessageAudio:
		return []FileDescriptor{{
			Provider: provider.Type,
			URL:      contentURL(),
			Filename: fmt.Sprintf("audio-%s.ogg", fileID),
		}}, nil

	case MessageFile:
		return []FileDescriptor{{
			Provider:     provider.Type,
			URL:          contentURL(),
			Filename:     truncatedFileName(fmt.Sprintf("file-%s-", fileID), msg.FileName),
			OrigFilename: msg.FileName,
		}}, nil

	case MessageImage, MessageVideo:
		prefix := fmt.Sprintf("video-%s", fileID)
		ext := ".mp4"
		if msg.Type == MessageImage {
			prefix = fmt.Sprintf("img-%s", fileID)
			if msg.ImageSet != nil && msg.ImageSet.ID != "" {
				prefix += fmt.Sprintf("-set_%s_%d", msg.ImageSet.ID, msg.ImageSet.Index)
			}
			ext = ".jpg"
		}

		files := []FileDescriptor{{
			Provider: provider.Type,
			URL:      contentURL(),
			Filename: prefix + ext,
		}}

		if provider.Type == ProviderLine || provider.PreviewImageURL != "" {
			previewURL := provider.PreviewImageURL
			if provider.Type == ProviderLine {
				previewURL = fmt.Sprintf("%s/v2/bot/message/%s/content/preview", contentBase, msg.ID)
			}
			files = append(files, FileDescriptor{
				Provider: provider.Type,
				URL:      previewURL,
				Filename: prefix + "-preview" + ext,
			})
		}
		return files, nil

	default:
		return nil, ErrNoDownloadableContent
	}
}
