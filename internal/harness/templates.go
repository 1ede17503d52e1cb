package harness

type template struct {
	genre    string
	features []Feature
}

func feature(name, description, priority string, tags ...string) Feature {
	return Feature{Name: name, Description: description, Priority: priority, Tags: tags}
}

// Templates seed the feature list of a new project.
var templates = map[string]template{
	"tycoon": {
		genre: "Tycoon",
		features: []Feature{
			feature("Plot Ownership", "Players claim a plot that holds their tycoon", "critical", "core"),
			feature("Droppers and Conveyors", "Droppers spawn parts that conveyors carry to the collector", "critical", "core", "gameplay"),
			feature("Currency", "Collected parts convert into cash shown in the HUD", "high", "economy"),
			feature("Purchase Buttons", "Buttons unlock the next stage of the tycoon", "high", "gameplay"),
			feature("Rebirth", "Reset progress for a permanent multiplier", "medium", "progression"),
			feature("Data Persistence", "Save cash and unlocks with DataStoreService", "high", "data"),
		},
	},
	"obby": {
		genre: "Obby",
		features: []Feature{
			feature("Checkpoints", "Players respawn at the last checkpoint they touched", "critical", "core"),
			feature("Stages", "A sequence of obstacle stages with increasing difficulty", "critical", "level-design"),
			feature("Kill Bricks", "Touching a hazard resets the character", "high", "gameplay"),
			feature("Stage Counter", "Leaderstat showing the current stage", "medium", "ui"),
			feature("Skip Stage", "Developer product that skips one stage", "low", "monetization"),
		},
	},
	"simulator": {
		genre: "Simulator",
		features: []Feature{
			feature("Core Loop", "Click or swing to collect the main resource", "critical", "core"),
			feature("Backpack Capacity", "Resources fill a backpack that must be sold", "high", "gameplay"),
			feature("Sell Zone", "Convert collected resources into coins", "high", "economy"),
			feature("Upgrades Shop", "Buy better tools and larger backpacks", "high", "economy"),
			feature("Pets", "Hatch pets from eggs for stat multipliers", "medium", "progression"),
			feature("Data Persistence", "Save stats and inventory", "high", "data"),
		},
	},
	"rpg": {
		genre: "RPG",
		features: []Feature{
			feature("Combat System", "Melee and ability based combat", "critical", "core", "gameplay"),
			feature("Experience and Levels", "Gain experience from enemies and quests", "high", "progression"),
			feature("Inventory", "Equip and manage items", "high", "gameplay"),
			feature("Quests", "NPC-given quests with objectives and rewards", "medium", "content"),
			feature("Enemy AI", "Enemies patrol, chase and attack", "high", "ai"),
			feature("Data Persistence", "Save character progress", "high", "data"),
		},
	},
	"horror": {
		genre: "Horror",
		features: []Feature{
			feature("Monster AI", "A monster that hunts players using pathfinding", "critical", "core", "ai"),
			feature("Lighting and Atmosphere", "Dark lighting, fog and ambient sound", "high", "atmosphere"),
			feature("Objectives", "Collect items or solve puzzles to escape", "high", "gameplay"),
			feature("Hiding Spots", "Lockers and closets that hide players", "medium", "gameplay"),
			feature("Jumpscares", "Scripted scare events", "medium", "atmosphere"),
		},
	},
}
