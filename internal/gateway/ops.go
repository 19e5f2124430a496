package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/realtime"
	"github.com/yungbote/lessonforge-backend/internal/store"
)

// ProtectionChecker may veto a mutation on a protected lesson before it
// reaches the gateway. Owned by the auth collaborator; nil allows all.
type ProtectionChecker func(ctx context.Context, actor, lessonID string) error

// sectionEventDelay spaces out section-change notifications so a burst of
// saves from an editor settles before subscribers refetch.
const sectionEventDelay = 1 * time.Second

type opHandler func(ctx context.Context, actor string, args map[string]any) Result

// Operations is the dispatcher-facing registry: every named operation the
// external tool-call interface can invoke, wrapped with the idempotency
// policy where it mutates.
type Operations struct {
	log      *logger.Logger
	store    *store.Store
	hub      realtime.Publisher
	gw       *Gateway
	protect  ProtectionChecker
	handlers map[string]opHandler
}

func NewOperations(log *logger.Logger, st *store.Store, hub realtime.Publisher, gw *Gateway, protect ProtectionChecker) *Operations {
	o := &Operations{
		log:     log.With("component", "Operations"),
		store:   st,
		hub:     hub,
		gw:      gw,
		protect: protect,
	}
	o.handlers = map[string]opHandler{
		"lesson_create":                  o.lessonCreate,
		"lesson_update":                  o.lessonUpdate,
		"lesson_delete":                  o.lessonDelete,
		"lesson_duplicate":               o.lessonDuplicate,
		"lesson_list":                    o.lessonList,
		"lesson_list_by_status":          o.lessonListByStatus,
		"lesson_sections_list":           o.sectionsList,
		"lesson_section_get":             o.sectionGet,
		"lesson_section_put":             o.sectionPut,
		"lesson_section_create":          o.sectionCreate,
		"lesson_section_instance_create": o.sectionInstanceCreate,
		"lesson_section_append":          o.sectionAppend,
		"lesson_section_delete":          o.sectionDelete,
		"lesson_exercise_generator_put":  o.generatorPut,
		"lesson_profile_get":             o.profileGet,
		"lesson_profile_put":             o.profilePut,
	}
	return o
}

func (o *Operations) Names() []string {
	names := make([]string, 0, len(o.handlers))
	for name := range o.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch resolves a named operation. The actor identity is implicit in
// every call; a missing actor is a validation failure before any
// fingerprint work happens.
func (o *Operations) Dispatch(ctx context.Context, name, actor string, args map[string]any) Result {
	handler, ok := o.handlers[name]
	if !ok {
		return Fail(KindValidation, fmt.Sprintf("unknown operation %q", name), nil)
	}
	if actor == "" {
		return Fail(KindValidation, "actor identity is required", nil)
	}
	if args == nil {
		args = map[string]any{}
	}
	return handler(ctx, actor, args)
}

func (o *Operations) checkProtection(ctx context.Context, actor, lessonID string) Result {
	if o.protect == nil {
		return Result{}
	}
	if err := o.protect(ctx, actor, lessonID); err != nil {
		return FailFromErr(err, map[string]any{"id": lessonID})
	}
	return Result{}
}

func (o *Operations) lessonCreate(ctx context.Context, actor string, args map[string]any) Result {
	title := argString(args, "title")
	if title == "" {
		return Fail(KindValidation, "title is required", nil)
	}
	status := argString(args, "status")
	if status == "" {
		status = "draft"
	}
	params := store.CreateParams{
		Title:          title,
		Status:         status,
		Summary:        argString(args, "summary"),
		Subject:        argString(args, "subject"),
		Level:          argString(args, "level"),
		RequiresLogin:  optBool(args, "requires_login"),
		ExerciseConfig: optExerciseConfig(args, "exercise_config"),
	}
	return o.gw.Do(ctx, "lesson_create", actor, args, func(ctx context.Context) Result {
		lesson, err := o.store.Create(ctx, actor, params)
		if err != nil {
			return FailFromErr(err, nil)
		}
		value, err := toMap(lesson)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.LessonEvent(realtime.EventLessonCreated, lesson.ID), 0)
		return OK(value)
	})
}

func (o *Operations) lessonUpdate(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	if lessonID == "" {
		return Fail(KindValidation, "lesson_id is required", nil)
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	params := store.UpdateParams{
		Title:          optString(args, "title"),
		Status:         optString(args, "status"),
		Summary:        optString(args, "summary"),
		Subject:        optString(args, "subject"),
		Level:          optString(args, "level"),
		RequiresLogin:  optBool(args, "requires_login"),
		ExerciseConfig: optExerciseConfig(args, "exercise_config"),
	}
	return o.gw.Do(ctx, "lesson_update", actor, args, func(ctx context.Context) Result {
		lesson, err := o.store.Update(ctx, actor, lessonID, params)
		if err != nil {
			return FailFromErr(err, map[string]any{"id": lessonID})
		}
		if lesson == nil {
			return Fail(KindNotFound, "lesson not found", map[string]any{"id": lessonID})
		}
		value, err := toMap(lesson)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.LessonEvent(realtime.EventLessonUpdated, lessonID), 0)
		return OK(value)
	})
}

func (o *Operations) lessonDelete(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	if lessonID == "" {
		return Fail(KindValidation, "lesson_id is required", nil)
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	return o.gw.Do(ctx, "lesson_delete", actor, args, func(ctx context.Context) Result {
		deleted, err := o.store.Delete(ctx, actor, lessonID)
		if err != nil {
			return FailFromErr(err, map[string]any{"id": lessonID})
		}
		if !deleted {
			return Fail(KindNotFound, "lesson not found", map[string]any{"id": lessonID})
		}
		o.hub.Publish(actor, realtime.LessonEvent(realtime.EventLessonDeleted, lessonID), 0)
		return OK(map[string]any{"status": "deleted", "id": lessonID})
	})
}

func (o *Operations) lessonDuplicate(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	if lessonID == "" {
		return Fail(KindValidation, "lesson_id is required", nil)
	}
	return o.gw.Do(ctx, "lesson_duplicate", actor, args, func(ctx context.Context) Result {
		clone, err := o.store.Duplicate(ctx, actor, lessonID)
		if err != nil {
			return FailFromErr(err, map[string]any{"id": lessonID})
		}
		if clone == nil {
			return Fail(KindNotFound, "lesson not found", map[string]any{"id": lessonID})
		}
		value, err := toMap(clone)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.LessonEvent(realtime.EventLessonDuplicated, clone.ID), 0)
		return OK(value)
	})
}

func (o *Operations) lessonList(ctx context.Context, actor string, _ map[string]any) Result {
	entries, err := o.store.List(ctx, actor)
	if err != nil {
		return FailFromErr(err, nil)
	}
	return OK(map[string]any{"lessons": listingSummaries(entries)})
}

func (o *Operations) lessonListByStatus(ctx context.Context, actor string, args map[string]any) Result {
	status := argString(args, "status")
	if status == "" {
		return Fail(KindValidation, "status is required", nil)
	}
	entries, err := o.store.ListByStatus(ctx, actor, status)
	if err != nil {
		return FailFromErr(err, nil)
	}
	return OK(map[string]any{"lessons": listingSummaries(entries)})
}

func (o *Operations) sectionsList(_ context.Context, _ string, _ map[string]any) Result {
	tax := o.store.Taxonomy()
	return OK(map[string]any{
		"sections":     tax.Keys(),
		"descriptions": tax.Descriptions(),
	})
}

func (o *Operations) sectionGet(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	sectionKey := argString(args, "section_key")
	if sectionKey == "" {
		return Fail(KindValidation, "section_key is required", nil)
	}
	if !o.store.Taxonomy().IsValidSectionKey(sectionKey) {
		return Fail(KindValidation, "invalid section_key", map[string]any{"key": sectionKey})
	}
	section, err := o.store.GetSection(ctx, actor, lessonID, sectionKey)
	if err != nil {
		return FailFromErr(err, map[string]any{"key": sectionKey})
	}
	if section == nil {
		return Fail(KindNotFound, "section not found", map[string]any{"key": sectionKey})
	}
	value, err := toMap(section)
	if err != nil {
		return FailFromErr(err, nil)
	}
	return OK(value)
}

func (o *Operations) sectionWrite(ctx context.Context, op, actor string, args map[string]any, allowCreate bool, eventType realtime.EventType) Result {
	lessonID := argString(args, "lesson_id")
	if strings.TrimSpace(lessonID) == "" {
		return Fail(KindValidation, "lesson_id is required", nil)
	}
	sectionKey := argString(args, "section_key")
	if sectionKey == "" {
		return Fail(KindValidation, "section_key is required", nil)
	}
	if !o.store.Taxonomy().IsValidSectionKey(sectionKey) {
		return Fail(KindValidation, "invalid section_key", map[string]any{"key": sectionKey})
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	content := argString(args, "content")
	return o.gw.Do(ctx, op, actor, args, func(ctx context.Context) Result {
		section, err := o.store.PutSection(ctx, actor, lessonID, sectionKey, content, allowCreate)
		if err != nil {
			return FailFromErr(err, map[string]any{"key": sectionKey})
		}
		if section == nil {
			return Fail(KindNotFound, "section not found", map[string]any{"key": sectionKey})
		}
		value, err := toMap(section)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.SectionEvent(eventType, lessonID, sectionKey), sectionEventDelay)
		return OK(value)
	})
}

func (o *Operations) sectionPut(ctx context.Context, actor string, args map[string]any) Result {
	return o.sectionWrite(ctx, "lesson_section_put", actor, args, false, realtime.EventSectionUpdated)
}

func (o *Operations) sectionCreate(ctx context.Context, actor string, args map[string]any) Result {
	return o.sectionWrite(ctx, "lesson_section_create", actor, args, true, realtime.EventSectionCreated)
}

func (o *Operations) sectionInstanceCreate(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	baseKey := argString(args, "base_key")
	if baseKey == "" {
		return Fail(KindValidation, "base_key is required", nil)
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	content := argString(args, "content")
	return o.gw.Do(ctx, "lesson_section_instance_create", actor, args, func(ctx context.Context) Result {
		section, err := o.store.CreateSectionInstance(ctx, actor, lessonID, baseKey, content)
		if err != nil {
			return FailFromErr(err, map[string]any{"key": baseKey})
		}
		if section == nil {
			return Fail(KindNotFound, "section instance not created", map[string]any{"key": baseKey})
		}
		value, err := toMap(section)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.SectionEvent(realtime.EventSectionCreated, lessonID, section.Key), sectionEventDelay)
		return OK(value)
	})
}

func (o *Operations) sectionAppend(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	if lessonID == "" {
		return Fail(KindValidation, "lesson_id is required", nil)
	}
	items := argItems(args, "items")
	if len(items) == 0 {
		return Fail(KindValidation, "items is required", nil)
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	sectionKey := argString(args, "section_key")
	return o.gw.Do(ctx, "lesson_section_append", actor, args, func(ctx context.Context) Result {
		appended, err := o.store.AppendExercises(ctx, actor, lessonID, items, sectionKey)
		if err != nil {
			return FailFromErr(err, map[string]any{"id": lessonID})
		}
		if appended == nil {
			return Fail(KindNotFound, "section not found", map[string]any{"id": lessonID})
		}
		value, err := toMap(appended)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.SectionEvent(realtime.EventSectionUpdated, lessonID, appended.Key), sectionEventDelay)
		return OK(value)
	})
}

func (o *Operations) sectionDelete(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	sectionKey := argString(args, "section_key")
	if sectionKey == "" {
		return Fail(KindValidation, "section_key is required", nil)
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	return o.gw.Do(ctx, "lesson_section_delete", actor, args, func(ctx context.Context) Result {
		deleted, err := o.store.DeleteSection(ctx, actor, lessonID, sectionKey)
		if err != nil {
			return FailFromErr(err, map[string]any{"key": sectionKey})
		}
		if !deleted {
			return Fail(KindNotFound, "section not found", map[string]any{"key": sectionKey})
		}
		o.hub.Publish(actor, realtime.SectionEvent(realtime.EventSectionDeleted, lessonID, sectionKey), 0)
		return OK(map[string]any{"status": "deleted", "key": sectionKey})
	})
}

func (o *Operations) generatorPut(ctx context.Context, actor string, args map[string]any) Result {
	lessonID := argString(args, "lesson_id")
	if lessonID == "" {
		return Fail(KindValidation, "lesson_id is required", nil)
	}
	code := argString(args, "code")
	if code == "" {
		return Fail(KindValidation, "code is required", nil)
	}
	if res := o.checkProtection(ctx, actor, lessonID); res.err != nil {
		return res
	}
	return o.gw.Do(ctx, "lesson_exercise_generator_put", actor, args, func(ctx context.Context) Result {
		meta, err := o.store.PutExerciseGenerator(ctx, actor, lessonID, code)
		if err != nil {
			return FailFromErr(err, map[string]any{"id": lessonID})
		}
		if meta == nil {
			return Fail(KindNotFound, "lesson not found", map[string]any{"id": lessonID})
		}
		value, err := toMap(meta)
		if err != nil {
			return FailFromErr(err, nil)
		}
		o.hub.Publish(actor, realtime.GeneratorEvent(lessonID, 0), 0)
		return OK(value)
	})
}

func (o *Operations) profileGet(ctx context.Context, actor string, _ map[string]any) Result {
	profile, err := o.store.GetProfile(ctx, actor)
	if err != nil {
		return FailFromErr(err, nil)
	}
	value, err := toMap(profile)
	if err != nil {
		return FailFromErr(err, nil)
	}
	return OK(value)
}

func (o *Operations) profilePut(ctx context.Context, actor string, args map[string]any) Result {
	return o.gw.Do(ctx, "lesson_profile_put", actor, args, func(ctx context.Context) Result {
		profile, err := o.store.PutProfile(ctx, actor, optString(args, "name"), optString(args, "school"))
		if err != nil {
			return FailFromErr(err, nil)
		}
		value, err := toMap(profile)
		if err != nil {
			return FailFromErr(err, nil)
		}
		return OK(value)
	})
}

func listingSummaries(entries []store.ListingEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		out = append(out, map[string]any{"id": entry.ID, "title": entry.Title})
	}
	return out
}
