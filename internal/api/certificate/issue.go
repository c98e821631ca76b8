package certificate

import (
	"errors"
	"net/http"
	"time"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Issue creates the learner's certificate once the whole course is
// complete. Re-issuing returns the existing certificate; the unique
// index on userId backs up the check-then-create.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var user schemas.User
	if err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if user.Progress.CompletedAt == nil {
		resParams.ResData = &struct {
			CourseIncomplete bool `json:"courseIncomplete"`
		}{CourseIncomplete: true}
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return
	}

	certColl := h.MongoDB.Collection("certificates")

	var cert schemas.Certificate
	err := certColl.FindOne(ctx, bson.M{"userId": uid}).Decode(&cert)
	if err == nil {
		resParams.ResData = certView(&cert)
		resParams.Code = http.StatusOK
		h.Res(resParams)
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	cert = schemas.Certificate{
		UserId:      uid,
		Serial:      uuid.New().String(),
		FullName:    user.FullName,
		CourseTitle: config.COURSE_TITLE,
		IssuedAt:    time.Now().UTC(),
	}
	if _, err := certColl.InsertOne(ctx, &cert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost the race to another request; return the winner
			if err := certColl.FindOne(ctx, bson.M{"userId": uid}).Decode(&cert); err != nil {
				resParams.Code = http.StatusInternalServerError
				resParams.Err = err
				h.Res(resParams)
				return
			}
		} else {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
	}

	resParams.ResData = certView(&cert)
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func certView(cert *schemas.Certificate) any {
	return &struct {
		Serial      string    `json:"serial"`
		FullName    string    `json:"fullName"`
		CourseTitle string    `json:"courseTitle"`
		IssuedAt    time.Time `json:"issuedAt"`
	}{
		Serial:      cert.Serial,
		FullName:    cert.FullName,
		CourseTitle: cert.CourseTitle,
		IssuedAt:    cert.IssuedAt,
	}
}
