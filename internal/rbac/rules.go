package rbac

// Default policy. Students act on their own answers and read their own
// released grades; teachers run the grading pipeline; admins manage accounts
// on top of that.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"answer:submit",
		"scores:view-own",
	},
	"teacher": {
		"exam:view",
		"exam:create",
		"exam:release",
		"question:create",
		"correction:apply",
		"penalty:preview",
		"composite:create",
		"composite:recompute",
		"scores:view-all",
		"roster:manage",
	},
	"admin": {
		"*", // everything
	},
}
