package core

import "scenecore/pkg/domain"

type (
	EntityType          = domain.EntityType
	Action              = domain.Action
	Vec3                = domain.Vec3
	PlacedItem          = domain.PlacedItem
	ArchitecturalObject = domain.ArchitecturalObject
	Floor               = domain.Floor
	FloorPlate          = domain.FloorPlate
	Change              = domain.Change
	ChangeFlags         = domain.ChangeFlags
	Result              = domain.Result
	Violation           = domain.Violation
	RuleViolationError  = domain.RuleViolationError
	ErrNotFound         = domain.ErrNotFound
)

const (
	EntityPlacedItem = domain.EntityPlacedItem
	EntityArchObject = domain.EntityArchObject
	EntityFloors     = domain.EntityFloors
	EntityPlates     = domain.EntityPlates
	EntitySelection  = domain.EntitySelection
	EntityFloorOrder = domain.EntityFloorOrder
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
