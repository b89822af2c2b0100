package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIngredient(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"  Green Onions ", "green onion"},
		{"Tomatoes", "tomato"},
		{"EGGS", "egg"},
		{"all-purpose flour", "all-purpose flour"},
		{"chicken, diced", "chicken diced"},
		{"Bay Leaves", "bay leaf"},
		{"radishes", "radish"},
		{"asparagus", "asparagus"},
		{"swiss cheese", "swiss cheese"},
		{"berries", "berry"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeIngredient(tc.input))
		})
	}
}

func TestNormalizeIngredientSet_DropsStaplesAndDuplicates(t *testing.T) {
	got := NormalizeIngredientSet([]string{"Eggs", "salt", "Flour", "eggs", "Water", "milk"})

	assert.Equal(t, []string{"egg", "flour", "milk"}, got)
}

func TestNormalizeIngredientSet_SortsOutput(t *testing.T) {
	got := NormalizeIngredientSet([]string{"zucchini", "apples", "Milk"})

	assert.Equal(t, []string{"apple", "milk", "zucchini"}, got)
}

func TestNormalizeIngredientSet_StaplesOnlyFallsBack(t *testing.T) {
	// A staples-only recipe keeps its staples so the set stays comparable
	got := NormalizeIngredientSet([]string{"Salt", "Water"})

	assert.Equal(t, []string{"salt", "water"}, got)
}

func TestNormalizeIngredientSet_Empty(t *testing.T) {
	assert.Empty(t, NormalizeIngredientSet(nil))
	assert.Empty(t, NormalizeIngredientSet([]string{"", "  "}))
}

func TestIsStaple(t *testing.T) {
	assert.True(t, IsStaple("salt"))
	assert.True(t, IsStaple("black pepper"))
	assert.False(t, IsStaple("saffron"))
}

func TestNormalizeIdentifier(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Green Onion", "green_onion"},
		{"  Sheet-Pan  Dinner ", "sheet_pan_dinner"},
		{"(weird)", "weird"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeIdentifier(tc.input))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Italian", "gluten free", "ITALIAN", ""})

	assert.Equal(t, []string{"gluten_free", "italian"}, got)
}
