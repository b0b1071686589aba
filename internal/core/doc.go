// Package core provides the business logic of the canonical data model editor.
//
// It is independent of any transport: web handlers, tools and tests drive it
// through [Service] and persist through a [Store] implementation.
//
// # Entities
//
// Four entity kinds are edited:
//
//   - Drivers: the sector/domain/country/clarifier vocabulary, user-ordered per category.
//   - Objects: being/avatar/object rows with typed relationships to other objects and named variants.
//   - Variables: part/section/group rows linked to objects.
//   - Lists: set/grouping/list rows with values and tiers that reference other lists.
//
// Each kind registers an [EntityDefinition] at init time. The definition's
// field specs drive grid filtering, sorting, bulk edit and CSV upload, all of
// which go through the [Record] Cell/SetCell accessors.
//
// # Driver Strings
//
// Objects and Variables carry a driver string that encodes a [DriverSelection]:
//
//	Retail+Banking, Payments, USA+CAN, ALL
//
// Segments are sector, domain, country and clarifier in that order. The
// service stores the canonical form produced by [DriverCatalog.Canonicalize].
//
// # Views
//
// [BuildView] filters, sorts and pages records. Sorting is by a single column,
// by a custom multi-level sort, or by the persisted [DefaultOrder], a
// user-defined ranking of categorical values.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with support codes by
// [MapError]. Validation problems are returned as [ValidationErrors].
package core
