package assetdb

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/filetree"
	"github.com/mwantia/assetdb/importer"
	"github.com/mwantia/assetdb/metadata"
	"github.com/mwantia/assetdb/storage"
)

// ReloadScripts rescans the script headers. Every header refreshes or
// creates its script resource; script resources whose header was not seen
// during the pass are removed with their asset, record and artifact.
func (r *Registry) ReloadScripts(ctx context.Context) *Report {
	report := &Report{}
	if r.isClosed() {
		r.log.Warn("Ignoring script reload: %v", r.errClosed())
		return report
	}

	layout := r.options.Layout

	var headers []string
	if storage.IsDir(r.fsys, layout.ScriptHeaders) {
		node := filetree.New(layout.ScriptHeaders)
		if err := filetree.Discover(ctx, r.fsys, node, nil); err != nil {
			r.log.Warn("Unable to enumerate script headers in '%s': %v", layout.ScriptHeaders, err)
			return report
		}
		for _, file := range filetree.Files(node) {
			if data.IsHeader(file) {
				headers = append(headers, file)
			}
		}
	} else {
		r.log.Debug("No script header folder '%s'", layout.ScriptHeaders)
	}

	seen := make(map[uint64]struct{})
	names := make(map[string]string)

	for _, header := range headers {
		if err := ctx.Err(); err != nil {
			r.log.Warn("Script reload interrupted: %v", err)
			report.sort()
			return report
		}

		name := data.BaseName(header)
		if other, ok := names[data.FoldKey(name)]; ok {
			r.log.Warn("Ignoring header '%s': script '%s' is already declared by '%s'", header, name, other)
			continue
		}
		names[data.FoldKey(name)] = header

		res, result, err := r.reloadScript(ctx, header)
		if res != nil {
			seen[res.ID] = struct{}{}
		}

		switch {
		case err != nil:
			report.add(&report.Failed, header)
		case result == outcomeAdded:
			report.add(&report.Added, res.AssetPath)
		case result == outcomeReimported:
			report.add(&report.Reimported, res.AssetPath)
		default:
			report.add(&report.Loaded, res.AssetPath)
		}
	}

	r.sweepScripts(ctx, seen, report)

	report.sort()
	r.log.Info("Reloaded scripts: %s", report)
	return report
}

// reloadScript confirms or regenerates the script declared by header.
func (r *Registry) reloadScript(ctx context.Context, header string) (*data.Resource, outcome, error) {
	layout := r.options.Layout

	info, err := r.fsys.Stat(header)
	if err != nil {
		r.log.Warn("Skipping unreadable header '%s': %v", header, err)
		return nil, outcomeLoaded, err
	}
	content, err := r.fsys.ReadFile(header)
	if err != nil {
		r.log.Warn("Skipping unreadable header '%s': %v", header, err)
		return nil, outcomeLoaded, err
	}

	scriptPath := path.Join(layout.Scripts, data.BaseName(header)+data.ScriptExtensions[0])
	rec, found := metadata.Lookup(ctx, r.options.Metadata, r.log, scriptPath)

	r.mu.Lock()
	existing, registered := r.getByPathUnsafe(scriptPath)
	if found && registered && existing.ID != rec.ID {
		r.log.Warn("Metadata of '%s' changed its id from '%d' to '%d'", scriptPath, existing.ID, rec.ID)
		r.removeUnsafe(existing.ID)
		existing, registered = nil, false
	}
	if !found {
		id := r.newIDUnsafe()
		if registered {
			id = existing.ID
		}
		rec = data.NewRecord(id, data.KindScript, scriptPath)
	}
	r.mu.Unlock()

	if rec.LibraryPath == "" {
		rec.LibraryPath = layout.LibraryPath(data.KindScript, rec.ID)
	}

	work := rec.Clone()
	result, err := r.options.Importer.Import(ctx, &importer.Request{
		AssetPath: header,
		Kind:      data.KindScript,
		Content:   content,
		Record:    work,
		NewID:     r.newID,
	})
	if err == nil && result == nil {
		err = fmt.Errorf("%w: %s: importer returned no result", data.ErrImportFailed, header)
	}
	if err != nil {
		r.log.Error("Failed to parse script header '%s': %v", header, err)
		return existing, outcomeLoaded, err
	}

	script, ok := result.Payload.(*data.ScriptData)
	if !ok {
		err := fmt.Errorf("%w: %s: importer returned no script payload", data.ErrImportFailed, header)
		r.log.Error("Failed to parse script header '%s': %v", header, err)
		return existing, outcomeLoaded, err
	}

	version := r.options.Importer.Version()
	unchanged := found &&
		rec.Signature == script.Signature &&
		!metadata.OlderImporter(rec.ImporterVersion, version) &&
		storage.Exists(r.fsys, scriptPath) &&
		r.options.Library.Exists(ctx, rec.LibraryPath)

	if unchanged {
		if registered && existing.IsLoaded() {
			return existing, outcomeLoaded, nil
		}
		res, err := r.load(ctx, rec)
		if err == nil {
			return res, outcomeLoaded, nil
		}
		r.log.Warn("Library artifact of '%s' is unusable, regenerating: %v", scriptPath, err)
	}

	if registered {
		r.mu.Lock()
		existing.State = data.StateUnloaded
		existing.Payload = nil
		r.mu.Unlock()
	}
	// compiled metadata of the previous signature is dropped before regenerating
	if err := ignoreNotExist(r.options.Library.Remove(ctx, rec.LibraryPath)); err != nil {
		r.log.Warn("Unable to drop compiled script '%s': %v", rec.LibraryPath, err)
	}

	res, err := r.writeScript(ctx, work, header, script, version, info.ModTime())
	if err != nil {
		r.log.Error("Failed to regenerate script '%s': %v", scriptPath, err)
		return existing, outcomeLoaded, err
	}

	if !found && !registered {
		r.log.Debug("Added script '%s' from '%s'", scriptPath, header)
		return res, outcomeAdded, nil
	}
	r.log.Debug("Regenerated script '%s' from '%s'", scriptPath, header)
	return res, outcomeReimported, nil
}

func (r *Registry) writeScript(ctx context.Context, rec *data.Record, header string, script *data.ScriptData, version string, modTime time.Time) (*data.Resource, error) {
	document, err := importer.MarshalScript(script)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteFileAtomic(r.fsys, rec.AssetPath, document); err != nil {
		return nil, fmt.Errorf("failed to write script asset: %w", err)
	}

	if err := r.putArtifact(ctx, rec.LibraryPath, rec.ID, rec.Name, rec.AssetPath, version, script); err != nil {
		return nil, err
	}

	rec.Signature = script.Signature
	rec.LastModified = modTime
	rec.ImporterVersion = version
	if rec.Params == nil {
		rec.Params = make(map[string]string)
	}
	rec.Params["header"] = header

	if err := r.options.Metadata.Write(ctx, rec.AssetPath, rec); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	return r.register(&data.Resource{
		ID:          rec.ID,
		Kind:        data.KindScript,
		Name:        rec.Name,
		AssetPath:   rec.AssetPath,
		LibraryPath: rec.LibraryPath,
		State:       data.StateLoaded,
		Payload:     script,
	}, nil, nil)
}

// sweepScripts removes every script that was not confirmed by a header.
func (r *Registry) sweepScripts(ctx context.Context, seen map[uint64]struct{}, report *Report) {
	r.mu.Lock()
	var removed []*data.Resource
	for id, res := range r.resources {
		if res.Kind != data.KindScript {
			continue
		}
		if _, ok := seen[id]; !ok {
			removed = append(removed, res)
		}
	}
	for _, res := range removed {
		r.removeUnsafe(res.ID)
	}
	r.mu.Unlock()

	purged := make(map[uint64]struct{})
	for _, res := range removed {
		r.removeScript(ctx, res.AssetPath, res.LibraryPath)
		purged[res.ID] = struct{}{}
		report.add(&report.Removed, res.AssetPath)
	}

	records, err := r.options.Metadata.List(ctx, r.options.Layout.Scripts)
	if err != nil {
		r.log.Warn("Unable to list all script metadata: %v", err)
	}
	for _, rec := range records {
		if rec.Kind != data.KindScript {
			continue
		}
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		if _, ok := purged[rec.ID]; ok {
			continue
		}

		r.removeScript(ctx, rec.AssetPath, rec.LibraryPath)
		report.add(&report.Removed, rec.AssetPath)
	}
}

func (r *Registry) removeScript(ctx context.Context, assetPath, libraryPath string) {
	if assetPath != "" {
		if err := storage.RemoveIfExists(r.fsys, assetPath); err != nil {
			r.log.Warn("Unable to remove script asset '%s': %v", assetPath, err)
		}
	}
	r.purge(ctx, assetPath, libraryPath, nil)
	r.log.Info("Removed script '%s': header no longer exists", assetPath)
}
