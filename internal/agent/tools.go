package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"studio/internal/studio"
)

// Toolset binds the four agent tools to one caller's store. The store may be
// a DBStore or a GuestStore; the tools cannot tell and do not care.
type Toolset struct {
	Store       studio.Store
	Inspiration *InspirationClient
}

func toolError(format string, args ...any) string {
	b, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   fmt.Sprintf(format, args...),
	})
	return string(b)
}

func toolJSON(payload map[string]any) string {
	payload["success"] = true
	b, err := json.Marshal(payload)
	if err != nil {
		return toolError("encode result: %v", err)
	}
	return string(b)
}

// Dispatch executes one tool call and returns its JSON result string. Tool
// failures are reported inside the result, never as a Go error; the model
// reads them and recovers.
func (t *Toolset) Dispatch(ctx context.Context, name string, args json.RawMessage) string {
	switch name {
	case "inventory_tool":
		return t.inventory(ctx, args)
	case "portfolio_tool":
		return t.portfolio(ctx, args)
	case "project_tool":
		return t.project(ctx, args)
	case "inspiration_tool":
		return t.inspiration(ctx, args)
	default:
		return toolError("unknown tool: %s", name)
	}
}

// --- inventory_tool ---

type inventoryItem struct {
	Brand    *string           `json:"brand"`
	Name     *string           `json:"name"`
	Type     *string           `json:"type"`
	Colors   *studio.ColorList `json:"colors"`
	Quantity *int              `json:"quantity"`
	Unit     *string           `json:"unit"`
	Notes    *string           `json:"notes"`
}

type inventoryArgs struct {
	Action   string         `json:"action"`
	Item     *inventoryItem `json:"item"`
	SupplyID *uint64        `json:"supply_id"`
}

func (t *Toolset) inventory(ctx context.Context, raw json.RawMessage) string {
	var args inventoryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolError("bad arguments: %v", err)
	}

	switch args.Action {
	case "list":
		supplies, err := t.Store.ListSupplies(ctx)
		if err != nil {
			return toolError("list supplies: %v", err)
		}
		return toolJSON(map[string]any{"supplies": supplies, "count": len(supplies)})

	case "low_stock":
		supplies, err := t.Store.LowStock(ctx)
		if err != nil {
			return toolError("low stock: %v", err)
		}
		return toolJSON(map[string]any{
			"low_stock_supplies": supplies,
			"count":              len(supplies),
			"message":            fmt.Sprintf("Found %d supplies running low.", len(supplies)),
		})

	case "get":
		if args.SupplyID == nil {
			return toolError("supply_id required for get")
		}
		sp, err := t.Store.GetSupply(ctx, *args.SupplyID)
		if err != nil {
			return toolError("get supply: %v", err)
		}
		return toolJSON(map[string]any{"supply": sp})

	case "add":
		if args.Item == nil {
			return toolError("item details required for add")
		}
		in := studio.SupplyInput{Quantity: 1}
		if args.Item.Brand != nil {
			in.Brand = *args.Item.Brand
		}
		if args.Item.Name != nil {
			in.Name = *args.Item.Name
		}
		if args.Item.Type != nil {
			in.Type = *args.Item.Type
		}
		if args.Item.Colors != nil {
			in.Colors = *args.Item.Colors
		}
		if args.Item.Quantity != nil {
			in.Quantity = *args.Item.Quantity
		}
		if args.Item.Unit != nil {
			in.Unit = *args.Item.Unit
		}
		if args.Item.Notes != nil {
			in.Notes = *args.Item.Notes
		}
		sp, err := t.Store.AddSupply(ctx, in)
		if err != nil {
			return toolError("add supply: %v", err)
		}
		return toolJSON(map[string]any{
			"message": fmt.Sprintf("Added %s %s", sp.Brand, sp.Name),
			"supply":  sp,
		})

	case "update":
		if args.SupplyID == nil {
			return toolError("supply_id required for update")
		}
		if args.Item == nil {
			return toolError("item details required for update")
		}
		patch := studio.SupplyPatch{
			Brand:    args.Item.Brand,
			Name:     args.Item.Name,
			Type:     args.Item.Type,
			Colors:   args.Item.Colors,
			Quantity: args.Item.Quantity,
			Unit:     args.Item.Unit,
			Notes:    args.Item.Notes,
		}
		sp, err := t.Store.UpdateSupply(ctx, *args.SupplyID, patch)
		if err != nil {
			return toolError("update supply: %v", err)
		}
		return toolJSON(map[string]any{
			"message": fmt.Sprintf("Updated %s %s", sp.Brand, sp.Name),
			"supply":  sp,
		})

	case "delete":
		if args.SupplyID == nil {
			return toolError("supply_id required for delete")
		}
		if err := t.Store.DeleteSupply(ctx, *args.SupplyID); err != nil {
			return toolError("delete supply: %v", err)
		}
		return toolJSON(map[string]any{"message": "Deleted"})

	default:
		return toolError("unknown action: %s", args.Action)
	}
}

// --- portfolio_tool ---

type artworkData struct {
	Title         *string `json:"title"`
	ImagePath     *string `json:"image_path"`
	Medium        *string `json:"medium"`
	Difficulty    *int    `json:"difficulty"`
	DateCreated   *string `json:"date_created"`
	Notes         *string `json:"notes"`
	ProjectID     *uint64 `json:"project_id"`
	AllowDownload *bool   `json:"allow_download"`
	AllowSharing  *bool   `json:"allow_sharing"`
}

type portfolioArgs struct {
	Action      string                `json:"action"`
	ArtworkData *artworkData          `json:"artwork_data"`
	ArtworkID   *uint64               `json:"artwork_id"`
	FilterBy    *studio.ArtworkFilter `json:"filter_by"`
}

func (t *Toolset) portfolio(ctx context.Context, raw json.RawMessage) string {
	var args portfolioArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolError("bad arguments: %v", err)
	}

	switch args.Action {
	case "list":
		artworks, err := t.Store.ListArtworks(ctx)
		if err != nil {
			return toolError("list artworks: %v", err)
		}
		return toolJSON(map[string]any{"artworks": artworks, "count": len(artworks)})

	case "search":
		filter := studio.ArtworkFilter{}
		if args.FilterBy != nil {
			filter = *args.FilterBy
		}
		artworks, err := t.Store.SearchArtworks(ctx, filter)
		if err != nil {
			return toolError("search artworks: %v", err)
		}
		return toolJSON(map[string]any{"artworks": artworks, "count": len(artworks)})

	case "get":
		if args.ArtworkID == nil {
			return toolError("artwork_id required for get")
		}
		a, err := t.Store.GetArtwork(ctx, *args.ArtworkID)
		if err != nil {
			return toolError("get artwork: %v", err)
		}
		return toolJSON(map[string]any{"artwork": a})

	case "add":
		if args.ArtworkData == nil {
			return toolError("artwork_data required for add")
		}
		d := args.ArtworkData
		in := studio.ArtworkInput{IsCopyrighted: true}
		if d.Title != nil {
			in.Title = *d.Title
		}
		if d.ImagePath != nil {
			in.ImagePath = *d.ImagePath
		}
		if d.Medium != nil {
			in.Medium = *d.Medium
		}
		in.Difficulty = d.Difficulty
		if d.DateCreated != nil {
			in.DateCreated = *d.DateCreated
		}
		if d.Notes != nil {
			in.Notes = *d.Notes
		}
		in.ProjectID = d.ProjectID
		if d.AllowDownload != nil {
			in.AllowDownload = *d.AllowDownload
		}
		if d.AllowSharing != nil {
			in.AllowSharing = *d.AllowSharing
		}
		a, err := t.Store.AddArtwork(ctx, in)
		if err != nil {
			return toolError("add artwork: %v", err)
		}
		return toolJSON(map[string]any{"message": "Added artwork", "artwork": a})

	case "update":
		if args.ArtworkID == nil {
			return toolError("artwork_id required for update")
		}
		if args.ArtworkData == nil {
			return toolError("artwork_data required for update")
		}
		d := args.ArtworkData
		patch := studio.ArtworkPatch{
			Title:         d.Title,
			Medium:        d.Medium,
			Difficulty:    d.Difficulty,
			Notes:         d.Notes,
			ProjectID:     d.ProjectID,
			AllowDownload: d.AllowDownload,
			AllowSharing:  d.AllowSharing,
		}
		a, err := t.Store.UpdateArtwork(ctx, *args.ArtworkID, patch)
		if err != nil {
			return toolError("update artwork: %v", err)
		}
		return toolJSON(map[string]any{"message": "Updated artwork", "artwork": a})

	case "delete":
		if args.ArtworkID == nil {
			return toolError("artwork_id required for delete")
		}
		if _, err := t.Store.DeleteArtwork(ctx, *args.ArtworkID); err != nil {
			return toolError("delete artwork: %v", err)
		}
		return toolJSON(map[string]any{"message": "Deleted"})

	default:
		return toolError("unknown action: %s", args.Action)
	}
}

// --- project_tool ---

type projectData struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	Status       *string            `json:"status"`
	Steps        *studio.StepList   `json:"steps"`
	SupplyList   *studio.IDList     `json:"supply_list"`
	SessionNotes *string            `json:"session_notes"`
	Instruction  *string            `json:"instruction"`
	StepNumber   *int               `json:"step_number"`
	Completed    *bool              `json:"completed"`
	Notes        *string            `json:"notes"`
}

type projectArgs struct {
	Action      string       `json:"action"`
	ProjectData *projectData `json:"project_data"`
	ProjectID   *uint64      `json:"project_id"`
}

func (t *Toolset) project(ctx context.Context, raw json.RawMessage) string {
	var args projectArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolError("bad arguments: %v", err)
	}

	switch args.Action {
	case "list":
		projects, err := t.Store.ListProjects(ctx)
		if err != nil {
			return toolError("list projects: %v", err)
		}
		return toolJSON(map[string]any{"projects": projects, "count": len(projects)})

	case "get":
		if args.ProjectID == nil {
			return toolError("project_id required for get")
		}
		p, err := t.Store.GetProject(ctx, *args.ProjectID)
		if err != nil {
			return toolError("get project: %v", err)
		}
		return toolJSON(map[string]any{"project": p})

	case "create":
		if args.ProjectData == nil {
			return toolError("project_data required for create")
		}
		d := args.ProjectData
		in := studio.ProjectInput{}
		if d.Title != nil {
			in.Title = *d.Title
		}
		if d.Description != nil {
			in.Description = *d.Description
		}
		if d.Status != nil {
			in.Status = *d.Status
		}
		if d.Steps != nil {
			in.Steps = *d.Steps
		}
		if d.SupplyList != nil {
			in.SupplyList = *d.SupplyList
		}
		if d.SessionNotes != nil {
			in.SessionNotes = *d.SessionNotes
		}
		p, err := t.Store.CreateProject(ctx, in)
		if err != nil {
			return toolError("create project: %v", err)
		}
		return toolJSON(map[string]any{
			"message": "Created project: " + p.Title,
			"project": p,
		})

	case "update":
		if args.ProjectID == nil {
			return toolError("project_id required for update")
		}
		if args.ProjectData == nil {
			return toolError("project_data required for update")
		}
		d := args.ProjectData
		patch := studio.ProjectPatch{
			Title:        d.Title,
			Description:  d.Description,
			Status:       d.Status,
			Steps:        d.Steps,
			SupplyList:   d.SupplyList,
			SessionNotes: d.SessionNotes,
		}
		p, err := t.Store.UpdateProject(ctx, *args.ProjectID, patch)
		if err != nil {
			return toolError("update project: %v", err)
		}
		return toolJSON(map[string]any{
			"message": "Updated project: " + p.Title,
			"project": p,
		})

	case "add_step":
		if args.ProjectID == nil {
			return toolError("project_id required for add_step")
		}
		if args.ProjectData == nil || args.ProjectData.Instruction == nil {
			return toolError("instruction required in project_data")
		}
		p, err := t.Store.AddProjectStep(ctx, *args.ProjectID, *args.ProjectData.Instruction)
		if err != nil {
			return toolError("add step: %v", err)
		}
		return toolJSON(map[string]any{
			"message": fmt.Sprintf("Added step %d to %s", len(p.Steps), p.Title),
			"project": p,
		})

	case "update_step":
		if args.ProjectID == nil {
			return toolError("project_id required for update_step")
		}
		if args.ProjectData == nil || args.ProjectData.StepNumber == nil {
			return toolError("step_number required in project_data")
		}
		d := args.ProjectData
		p, err := t.Store.UpdateProjectStep(ctx, *args.ProjectID, *d.StepNumber, studio.StepPatch{
			Instruction: d.Instruction,
			Completed:   d.Completed,
		})
		if err != nil {
			return toolError("update step: %v", err)
		}
		return toolJSON(map[string]any{
			"message": fmt.Sprintf("Updated step %d", *d.StepNumber),
			"project": p,
		})

	case "add_notes":
		if args.ProjectID == nil {
			return toolError("project_id required for add_notes")
		}
		if args.ProjectData == nil || args.ProjectData.Notes == nil {
			return toolError("notes required in project_data")
		}
		p, err := t.Store.AppendSessionNotes(ctx, *args.ProjectID, *args.ProjectData.Notes)
		if err != nil {
			return toolError("add notes: %v", err)
		}
		return toolJSON(map[string]any{"message": "Added session notes", "project": p})

	case "delete":
		if args.ProjectID == nil {
			return toolError("project_id required for delete")
		}
		if err := t.Store.DeleteProject(ctx, *args.ProjectID); err != nil {
			return toolError("delete project: %v", err)
		}
		return toolJSON(map[string]any{"message": "Deleted"})

	default:
		return toolError("unknown action: %s", args.Action)
	}
}

// --- inspiration_tool ---

type inspirationArgs struct {
	Theme          string `json:"theme"`
	Style          string `json:"style"`
	PinterestBoard string `json:"pinterest_board"`
}

func (t *Toolset) inspiration(ctx context.Context, raw json.RawMessage) string {
	var args inspirationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolError("bad arguments: %v", err)
	}
	if args.Theme == "" && args.PinterestBoard == "" {
		return toolError("theme is required")
	}

	result := t.Inspiration.Lookup(ctx, args.Theme, args.Style, args.PinterestBoard)
	b, err := json.Marshal(result)
	if err != nil {
		return toolError("encode result: %v", err)
	}
	return string(b)
}

// Definitions returns the tool schemas advertised to the model.
func Definitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "inspiration_tool",
				Description: "Search Pinterest for inspiration images matching a theme, colors, or style. Returns real Pinterest pins with clickable links. Use this when the user asks for visual inspiration or Pinterest ideas.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"theme": map[string]any{
							"type":        "string",
							"description": "The inspiration theme including colors and style. Be specific, e.g., 'purple blue green landscape watercolor', 'cozy autumn crochet blanket'",
						},
						"style": map[string]any{
							"type":        "string",
							"description": "Optional additional style preference (e.g., 'loose', 'detailed', 'cozy', 'modern')",
						},
						"pinterest_board": map[string]any{
							"type":        "string",
							"description": "Optional: user's Pinterest board URL to browse their saved pins instead of searching",
						},
					},
					"required": []string{"theme"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "inventory_tool",
				Description: "Manage art supply inventory. Actions: 'list' (all supplies), 'add' (new supply), 'update' (existing supply), 'low_stock' (supplies running low)",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action": map[string]any{
							"type":        "string",
							"enum":        []string{"list", "add", "update", "delete", "low_stock", "get"},
							"description": "The action to perform",
						},
						"item": map[string]any{
							"type":        "object",
							"description": "Supply details for add/update: {brand, name, type, quantity, unit, notes}",
						},
						"supply_id": map[string]any{
							"type":        "integer",
							"description": "ID of supply for get/update/delete",
						},
					},
					"required": []string{"action"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "portfolio_tool",
				Description: "Manage portfolio of artworks. Actions: 'list', 'add', 'get', 'search', 'update', 'delete'",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action": map[string]any{
							"type":        "string",
							"enum":        []string{"list", "add", "update", "delete", "get", "search"},
							"description": "The action to perform",
						},
						"artwork_data": map[string]any{
							"type":        "object",
							"description": "Artwork details: {title, image_path, medium, difficulty, notes, project_id}",
						},
						"artwork_id": map[string]any{"type": "integer"},
						"filter_by": map[string]any{
							"type":        "object",
							"description": "Filters for search: {medium, difficulty, project_id}",
						},
					},
					"required": []string{"action"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "project_tool",
				Description: "Manage art projects. Actions: 'list', 'create', 'get', 'update', 'add_step', 'update_step', 'add_notes', 'delete'",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action": map[string]any{
							"type":        "string",
							"enum":        []string{"list", "create", "update", "delete", "get", "add_step", "update_step", "add_notes"},
							"description": "The action to perform",
						},
						"project_data": map[string]any{
							"type":        "object",
							"description": "Project details: {title, description, status, steps, supply_list, session_notes}",
						},
						"project_id": map[string]any{"type": "integer"},
					},
					"required": []string{"action"},
				},
			},
		},
	}
}
