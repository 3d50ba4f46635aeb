package rest

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/internal/service/ingest"
)

// uploadMemoryLimit bounds how much of the multipart body is held in memory;
// larger files spill to disk before the size check rejects them.
const uploadMemoryLimit = 10 << 20

// uploadList handles POST /api/lists (multipart/form-data).
func (h *Handler) uploadList(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, domain.NewValidationError("body", "expected multipart form data"))
		return
	}

	input := ingest.UploadInput{
		Name: r.FormValue("name"),
	}
	if desc := r.FormValue("description"); desc != "" {
		input.Description = &desc
	}
	if replaces := r.FormValue("replaces"); replaces != "" {
		id, err := uuid.Parse(replaces)
		if err != nil {
			writeError(w, domain.NewValidationError("replaces", "must be a uuid"))
			return
		}
		input.ReplacesID = &id
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.NewValidationError("file", "required"))
		return
	}
	defer file.Close()
	input.FileName = header.Filename
	input.File, err = io.ReadAll(file)
	if err != nil {
		writeError(w, domain.NewValidationError("file", "unreadable"))
		return
	}

	list, err := h.ingest.UploadList(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListResponse(*list))
}

// listLists handles GET /api/lists.
func (h *Handler) listLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.ingest.ListLists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]listResponse, len(lists))
	for i, l := range lists {
		out[i] = toListResponse(l)
	}
	writeJSON(w, http.StatusOK, out)
}

// getList handles GET /api/lists/{listID}.
func (h *Handler) getList(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathUUID(w, r, "listID")
	if !ok {
		return
	}

	detail, err := h.ingest.GetList(r.Context(), listID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListDetailResponse(detail))
}

// listItems handles GET /api/lists/{listID}/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathUUID(w, r, "listID")
	if !ok {
		return
	}

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	page, err := h.ingest.ListItems(r.Context(), listID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemPageResponse(page))
}

// getItem handles GET /api/lists/{listID}/items/{itemID}.
func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathUUID(w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	item, err := h.ingest.GetItem(r.Context(), listID, itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(*item))
}

// queryInt parses an integer query parameter, treating absent or malformed
// values as zero so the service applies its defaults.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
