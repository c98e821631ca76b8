package certificate

import (
	"errors"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func (h *Handler) GetCertificate(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var cert schemas.Certificate
	err := h.MongoDB.Collection("certificates").FindOne(ctx, bson.M{"userId": uid}).Decode(&cert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
		}
		h.Res(resParams)
		return
	}

	resParams.ResData = certView(&cert)
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
