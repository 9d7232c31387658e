package models

import "time"

// Officer holds the structure for the police_officers collection. The ID is
// the id of the credential the officer signs in with.
type Officer struct {
	ID        string    `json:"id" bson:"_id"`
	RG        string    `json:"rg" bson:"rg"`
	Rank      string    `json:"rank" bson:"rank"`
	QRA       string    `json:"qra" bson:"qra"`
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SignUpData is the payload accepted by the sign up endpoint
type SignUpData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RG       string `json:"rg"`
	Rank     string `json:"rank"`
	QRA      string `json:"qra"`
}
