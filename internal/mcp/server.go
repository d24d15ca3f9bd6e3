// Package mcp exposes the indexed crate documentation over the Model
// Context Protocol: tools for indexing and searching, and rsdoc://
// resources for reading item pages.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/jcdickinson/cratemap/internal/cache"
	"github.com/jcdickinson/cratemap/internal/db"
	"github.com/jcdickinson/cratemap/internal/index"
	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

//go:embed instructions.md
var instructions string

// CrateSpec names one crate version to index.
type CrateSpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type Server struct {
	mcpServer   *server.MCPServer
	db          *db.DB
	loader      *cache.Loader
	indexer     *index.Indexer
	reader      *index.Reader
	concurrency int
}

func NewServer(database *db.DB, loader *cache.Loader, indexer *index.Indexer, reader *index.Reader, concurrency int) *Server {
	if concurrency < 1 {
		concurrency = 1
	}
	s := &Server{
		db:          database,
		loader:      loader,
		indexer:     indexer,
		reader:      reader,
		concurrency: concurrency,
	}

	mcpServer := server.NewMCPServer(
		"cratemap",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("add_crates",
			mcp.WithDescription("Fetch and index Rust crate documentation from docs.rs. Synchronous — returns when complete. Version defaults to \"latest\"."),
			addCratesSchema,
		),
		s.handleAddCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_items",
			mcp.WithDescription("Search indexed crate documentation by item name or path substring. Returns rsdoc:// URIs that can be read as resources. Use `crates` to filter; omit to search all indexed crates."),
			mcp.WithString("query",
				mcp.Description("Item name or path fragment (e.g. \"Deserialize\" or \"serde::de\")"),
				mcp.Required(),
			),
			mcp.WithArray("crates",
				mcp.Description("Optional list of crate names to search within"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchItems,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_crates",
			mcp.WithDescription("List locally indexed crate versions."),
		),
		s.handleListCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("validate_crate",
			mcp.WithDescription("Fetch a crate's rustdoc JSON and check it for internal consistency: format version and reference closure. Reports the first fault found."),
			mcp.WithString("name",
				mcp.Description("Crate name"),
				mcp.Required(),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
		),
		s.handleValidateCrate,
	)
}

func addCratesSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "crates")
	t.InputSchema.Properties["crates"] = map[string]any{
		"type":        "array",
		"description": "List of crates to index",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Crate name (e.g., \"serde\")",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version (default: \"latest\")",
				},
			},
			"required": []string{"name"},
		},
	}
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"rsdoc://{crate}/{version}/{path}",
			"Rust documentation item",
			mcp.WithTemplateDescription("Read a specific Rust documentation item. Search results return these URIs; append #fragment for sub-documents."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

type addCrateResult struct {
	Crate     string `json:"crate"`
	Version   string `json:"version"`
	Items     int    `json:"items,omitempty"`
	Reexports int    `json:"reexports,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleAddCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cratesRaw, ok := args["crates"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: crates"), nil
	}

	cratesJSON, err := json.Marshal(cratesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates parameter: %v", err)), nil
	}

	var specs []CrateSpec
	if err := json.Unmarshal(cratesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates format: %v", err)), nil
	}

	results := make([]addCrateResult, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			version := spec.Version
			if version == "" {
				version = "latest"
			}
			results[i] = addCrateResult{Crate: spec.Name, Version: version}
			res, err := s.indexer.Index(gctx, spec.Name, version)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Version = res.Crate.Version
			results[i].Items = res.Items
			results[i].Reexports = res.Reexports
			return nil
		})
	}
	g.Wait()

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

type searchResult struct {
	URI       string `json:"uri"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Signature string `json:"signature,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

func (s *Server) handleSearchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := 20
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var crateFilter []string
	if cratesRaw, ok := args["crates"]; ok {
		cratesJSON, _ := json.Marshal(cratesRaw)
		json.Unmarshal(cratesJSON, &crateFilter)
	}

	crates, err := s.db.ListCrates()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing crates: %v", err)), nil
	}
	byID := make(map[int]db.Crate, len(crates))
	var crateIDs []int
	for _, c := range crates {
		byID[c.ID] = c
		if len(crateFilter) > 0 && !containsString(crateFilter, c.Name) {
			continue
		}
		crateIDs = append(crateIDs, c.ID)
	}
	if len(crateFilter) > 0 && len(crateIDs) == 0 {
		return mcp.NewToolResultError("none of the requested crates are indexed; call add_crates first"), nil
	}

	items, err := s.db.SearchItems(query, crateIDs, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]searchResult, 0, len(items))
	for _, it := range items {
		crate := byID[it.CrateID]
		results = append(results, searchResult{
			URI:       fmt.Sprintf("rsdoc://%s/%s/%s", crate.Name, crate.Version, it.Path),
			Path:      it.Path,
			Kind:      it.Kind,
			Signature: it.Signature,
			Summary:   it.Summary,
		})
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crates, err := s.db.ListCrates()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing crates: %v", err)), nil
	}

	type crateInfo struct {
		Name          string `json:"name"`
		Version       string `json:"version"`
		FormatVersion int    `json:"format_version"`
		Indexed       bool   `json:"indexed"`
	}
	infos := make([]crateInfo, 0, len(crates))
	for _, c := range crates {
		infos = append(infos, crateInfo{
			Name:          c.Name,
			Version:       c.Version,
			FormatVersion: c.FormatVersion,
			Indexed:       c.IndexedAt != nil,
		})
	}

	resultJSON, _ := json.MarshalIndent(infos, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleValidateCrate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	version, _ := args["version"].(string)
	if version == "" {
		version = "latest"
	}

	crate, err := s.loader.Load(ctx, name, version)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading %s@%s: %v", name, version, err)), nil
	}
	if err := rustdoc.Validate(crate); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("invalid: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("valid: %d items, format version %d", len(crate.Index), crate.FormatVersion)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "rsdoc://")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	crateName, version, path := parts[0], parts[1], parts[2]
	var fragment string
	if idx := strings.LastIndex(path, "#"); idx >= 0 {
		fragment = path[idx+1:]
		path = path[:idx]
	}

	text, err := s.reader.ReadDoc(ctx, crateName, version, path, fragment)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
