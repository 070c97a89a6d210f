package ick

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestNShuffleWithIsRepeatable(t *testing.T) {
	a := NShuffleWith(rand.New(rand.NewSource(3)), []int{1, 2, 3, 4, 5, 6, 7, 8})
	b := NShuffleWith(rand.New(rand.NewSource(3)), []int{1, 2, 3, 4, 5, 6, 7, 8})
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed, different order: %v vs %v", a, b)
	}
	sort.Ints(a)
	if !reflect.DeepEqual(a, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("lost or duplicated elements: %v", a)
	}
}

func TestNShuffleWithNil(t *testing.T) {
	got := NShuffleWith[int](nil, []int{1, 2, 3})
	if len(got) != 3 {
		t.Errorf("got %v", got)
	}
}
